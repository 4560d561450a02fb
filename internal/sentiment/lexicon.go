package sentiment

// Word valences on the -4..+4 scale used by lexicon-based polarity models.
// Trimmed to the vocabulary that actually shows up in conversational,
// feelings-oriented speech.
var lexicon = map[string]float64{
	// positive
	"good":       1.9,
	"great":      3.1,
	"awesome":    3.1,
	"amazing":    2.8,
	"excellent":  2.7,
	"wonderful":  2.7,
	"fantastic":  2.6,
	"happy":      2.7,
	"happier":    2.8,
	"happiness":  2.6,
	"joy":        2.8,
	"joyful":     2.9,
	"glad":       2.0,
	"love":       3.2,
	"loved":      2.9,
	"loving":     2.9,
	"like":       1.5,
	"liked":      1.6,
	"enjoy":      2.2,
	"enjoyed":    2.3,
	"hope":       1.9,
	"hopeful":    2.3,
	"calm":       1.3,
	"calmer":     1.5,
	"relaxed":    2.0,
	"relieved":   1.9,
	"relief":     1.6,
	"proud":      2.6,
	"confident":  2.2,
	"grateful":   2.6,
	"thankful":   2.4,
	"thanks":     1.9,
	"better":     1.9,
	"best":       3.2,
	"fine":       0.8,
	"okay":       0.9,
	"ok":         0.9,
	"nice":       1.8,
	"safe":       1.8,
	"supported":  1.6,
	"encouraged": 1.9,
	"excited":    2.3,
	"fun":        2.3,
	"peaceful":   2.4,
	"strong":     2.3,

	// negative
	"bad":          -2.5,
	"terrible":     -2.1,
	"horrible":     -2.5,
	"awful":        -2.0,
	"worst":        -3.1,
	"worse":        -2.1,
	"sad":          -2.1,
	"sadness":      -2.1,
	"unhappy":      -1.8,
	"depressed":    -2.3,
	"depressing":   -1.9,
	"depression":   -2.7,
	"anxious":      -1.9,
	"anxiety":      -1.9,
	"worried":      -1.4,
	"worry":        -1.5,
	"afraid":       -2.2,
	"scared":       -2.2,
	"fear":         -2.2,
	"panic":        -2.4,
	"stress":       -1.7,
	"stressed":     -1.8,
	"overwhelmed":  -1.6,
	"tired":        -1.4,
	"exhausted":    -1.8,
	"lonely":       -2.0,
	"alone":        -1.0,
	"isolated":     -1.6,
	"hopeless":     -2.9,
	"helpless":     -2.2,
	"worthless":    -2.8,
	"useless":      -1.9,
	"angry":        -2.3,
	"anger":        -2.4,
	"mad":          -2.2,
	"furious":      -2.8,
	"frustrated":   -2.1,
	"frustrating":  -1.9,
	"hate":         -2.7,
	"hated":        -2.9,
	"hurt":         -2.1,
	"hurts":        -2.0,
	"pain":         -2.3,
	"painful":      -2.2,
	"crying":       -1.9,
	"cry":          -1.5,
	"upset":        -1.6,
	"miserable":    -2.8,
	"guilty":       -2.0,
	"guilt":        -2.1,
	"ashamed":      -2.1,
	"shame":        -2.0,
	"lost":         -1.3,
	"numb":         -1.4,
	"empty":        -1.2,
	"broken":       -1.9,
	"struggle":     -1.7,
	"struggling":   -1.8,
	"fail":         -2.3,
	"failed":       -2.2,
	"failure":      -2.5,
	"disappointed": -2.0,
	"nervous":      -1.4,
	"dread":        -2.4,
}

// Degree modifiers scale the valence of the word that follows them.
var boosters = map[string]float64{
	"very":       0.293,
	"really":     0.293,
	"extremely":  0.293,
	"incredibly": 0.293,
	"so":         0.293,
	"totally":    0.293,
	"completely": 0.293,
	"deeply":     0.293,
	"slightly":   -0.293,
	"somewhat":   -0.293,
	"kind":       -0.293, // "kind of"
	"kinda":      -0.293,
	"little":     -0.293,
	"barely":     -0.293,
	"hardly":     -0.293,
}

var negators = map[string]bool{
	"not":     true,
	"no":      true,
	"never":   true,
	"neither": true,
	"nor":     true,
	"nobody":  true,
	"nothing": true,
	"cannot":  true,
	"without": true,
	"dont":    true,
	"don't":   true,
	"doesnt":  true,
	"doesn't": true,
	"didnt":   true,
	"didn't":  true,
	"isnt":    true,
	"isn't":   true,
	"wasnt":   true,
	"wasn't":  true,
	"arent":   true,
	"aren't":  true,
	"cant":    true,
	"can't":   true,
	"couldnt": true,
	"couldn't": true,
	"wont":     true,
	"won't":    true,
	"wouldnt":  true,
	"wouldn't": true,
	"havent":   true,
	"haven't":  true,
	"hasnt":    true,
	"hasn't":   true,
}
