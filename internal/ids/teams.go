package ids

// bbref franchise codes that differ from the codes used in PitchFX game ids
var bbrefToBrooks = map[string]string{
	"CHC": "CHN",
	"CHW": "CHA",
	"KCR": "KCA",
	"LAA": "ANA",
	"LAD": "LAN",
	"NYM": "NYN",
	"NYY": "NYA",
	"SDP": "SDN",
	"SFG": "SFN",
	"STL": "SLN",
	"TBR": "TBA",
	"WSN": "WAS",
}

var brooksToBBRef = func() map[string]string {
	m := make(map[string]string, len(bbrefToBrooks))
	for bbref, brooks := range bbrefToBrooks {
		m[brooks] = bbref
	}
	return m
}()

// BrooksTeamID converts a bbref team code to the PitchFX code.
// Codes shared by both sources are returned unchanged.
func BrooksTeamID(bbref string) string {
	if brooks, ok := bbrefToBrooks[bbref]; ok {
		return brooks
	}
	return bbref
}

// BBRefTeamID converts a PitchFX team code to the bbref code.
func BBRefTeamID(brooks string) string {
	if bbref, ok := brooksToBBRef[brooks]; ok {
		return bbref
	}
	return brooks
}
