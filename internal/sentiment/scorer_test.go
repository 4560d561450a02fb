package sentiment

import "testing"

func TestScoreEmptyText(t *testing.T) {
	s := NewScorer()
	if got := s.Score(""); got != Neutral {
		t.Errorf("Expected neutral for empty text, got %s", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer()
	text := "I feel really anxious and overwhelmed lately"
	first := s.Compound(text)
	for i := 0; i < 10; i++ {
		if got := s.Compound(text); got != first {
			t.Fatalf("Compound not deterministic: %f vs %f", got, first)
		}
	}
}

func TestScoreLabels(t *testing.T) {
	s := NewScorer()
	cases := []struct {
		text string
		want Label
	}{
		{"I am so happy and grateful today!", Positive},
		{"I feel hopeless and worthless", Negative},
		{"I went to the store and bought milk", Neutral},
		{"", Neutral},
		{"this is great", Positive},
		{"this is not great", Negative},
		{"I don't feel sad anymore", Positive},
	}
	for _, c := range cases {
		if got := s.Score(c.text); got != c.want {
			t.Errorf("Score(%q) = %s, want %s (compound %f)", c.text, got, c.want, s.Compound(c.text))
		}
	}
}

func TestLabelBoundaries(t *testing.T) {
	cases := []struct {
		compound float64
		want     Label
	}{
		{0.05, Positive},
		{-0.05, Negative},
		{0.0, Neutral},
		{0.049, Neutral},
		{-0.049, Neutral},
		{0.9, Positive},
		{-0.9, Negative},
	}
	for _, c := range cases {
		if got := LabelFor(c.compound); got != c.want {
			t.Errorf("LabelFor(%f) = %s, want %s", c.compound, got, c.want)
		}
	}
}

func TestCompoundBounded(t *testing.T) {
	s := NewScorer()
	texts := []string{
		"love love love love love love love love!!!!",
		"hate hate hate hate hate hate hate hate",
	}
	for _, text := range texts {
		c := s.Compound(text)
		if c <= -1 || c >= 1 {
			t.Errorf("Compound(%q) = %f, expected inside (-1, 1)", text, c)
		}
	}
}

func TestBoosters(t *testing.T) {
	s := NewScorer()
	plain := s.Compound("I am happy")
	boosted := s.Compound("I am very happy")
	damped := s.Compound("I am slightly happy")
	if boosted <= plain {
		t.Errorf("Expected booster to raise score: %f <= %f", boosted, plain)
	}
	if damped >= plain {
		t.Errorf("Expected dampener to lower score: %f >= %f", damped, plain)
	}
}
