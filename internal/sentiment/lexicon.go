package sentiment

var defaultLexicon = map[string]float64{
	// positive
	"good":        0.7,
	"great":       0.8,
	"excellent":   1.0,
	"love":        0.5,
	"loving":      0.6,
	"loved":       0.7,
	"awesome":     1.0,
	"amazing":     0.6,
	"fantastic":   0.4,
	"wonderful":   1.0,
	"brilliant":   0.9,
	"perfect":     1.0,
	"best":        1.0,
	"better":      0.5,
	"nice":        0.6,
	"cool":        0.35,
	"helpful":     0.5,
	"useful":      0.3,
	"easy":        0.43,
	"simple":      0.2,
	"fast":        0.2,
	"reliable":    0.5,
	"stable":      0.3,
	"powerful":    0.3,
	"impressive":  1.0,
	"happy":       0.8,
	"glad":        0.5,
	"thanks":      0.2,
	"thank":       0.2,
	"works":       0.3,
	"solved":      0.4,
	"success":     0.3,
	"successful":  0.75,
	"recommend":   0.4,
	"elegant":     0.5,
	"clean":       0.37,
	"enjoy":       0.4,
	"fun":         0.3,
	"interesting": 0.5,
	"fine":        0.42,
	"like":        0.2,
	"solid":       0.4,

	// negative
	"bad":          -0.7,
	"terrible":     -1.0,
	"awful":        -1.0,
	"horrible":     -1.0,
	"worst":        -1.0,
	"worse":        -0.4,
	"hate":         -0.8,
	"hated":        -0.9,
	"broken":       -0.4,
	"error":        -0.3,
	"errors":       -0.3,
	"fail":         -0.5,
	"fails":        -0.5,
	"failed":       -0.5,
	"failing":      -0.5,
	"failure":      -0.5,
	"problem":      -0.3,
	"problems":     -0.3,
	"issue":        -0.2,
	"issues":       -0.2,
	"bug":          -0.3,
	"bugs":         -0.3,
	"buggy":        -0.5,
	"slow":         -0.3,
	"painful":      -0.7,
	"annoying":     -0.8,
	"frustrating":  -0.7,
	"confusing":    -0.4,
	"difficult":    -0.5,
	"hard":         -0.29,
	"useless":      -0.5,
	"poor":         -0.4,
	"wrong":        -0.5,
	"sad":          -0.5,
	"disappointed": -0.75,
	"nightmare":    -0.8,
	"stupid":       -0.8,
	"ugly":         -0.7,
	"crash":        -0.5,
	"crashes":      -0.5,
	"outage":       -0.6,
	"insecure":     -0.5,
}

var defaultNegators = map[string]bool{
	"not":       true,
	"no":        true,
	"never":     true,
	"nothing":   true,
	"hardly":    true,
	"cannot":    true,
	"isn't":     true,
	"isnt":      true,
	"aren't":    true,
	"arent":     true,
	"wasn't":    true,
	"wasnt":     true,
	"don't":     true,
	"dont":      true,
	"doesn't":   true,
	"doesnt":    true,
	"didn't":    true,
	"didnt":     true,
	"can't":     true,
	"cant":      true,
	"won't":     true,
	"wont":      true,
	"wouldn't":  true,
	"shouldn't": true,
}

var defaultIntensifiers = map[string]float64{
	"very":         1.3,
	"really":       1.3,
	"extremely":    1.5,
	"super":        1.3,
	"so":           1.2,
	"incredibly":   1.5,
	"totally":      1.3,
	"absolutely":   1.5,
	"quite":        1.1,
	"pretty":       1.1,
	"slightly":     0.5,
	"somewhat":     0.7,
	"particularly": 1.3,
}
