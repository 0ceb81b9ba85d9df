package config

type preset struct {
	pan  AxisConfig
	tilt AxisConfig
}

// Motion presets by fixture model. Pan is the yaw axis, tilt the pitch axis.
var presets = map[string]preset{
	"generic_beam":            genericBeam,
	"beam_rgbw_60w":           genericBeam,
	"beam_rgbw_90w":           genericBeam,
	"adj_stealth_beam":        stealthBeam,
	"eliminator_stealth_beam": stealthBeam,
}

var genericBeam = preset{
	pan: AxisConfig{
		MinDeg: 0, MaxDeg: 540,
		VMax: 300, AMax: 800, JMax: 50_000,
		KSmall: 1.5, SmallThreshDeg: 80,
		SnapPosDeg: 0.5, SnapVel: 3,
		ReverseBrakeScale: 1.4,
	},
	tilt: AxisConfig{
		MinDeg: 0, MaxDeg: 180,
		VMax: 320, AMax: 1600, JMax: 70_000,
		KSmall: 5, SmallThreshDeg: 15,
		SnapPosDeg: 0.3, SnapVel: 2,
		ReverseBrakeScale: 1.25,
	},
}

var stealthBeam = preset{
	pan: AxisConfig{
		MinDeg: 0, MaxDeg: -540,
		VMax: 480, AMax: 1200, JMax: 100_000,
		KSmall: 1.5, SmallThreshDeg: 80,
		SnapPosDeg: 0.005, SnapVel: 3,
		ReverseBrakeScale: 1,
	},
	tilt: AxisConfig{
		MinDeg: 0, MaxDeg: 180,
		VMax: 450, AMax: 3000.9, JMax: 100_000,
		KSmall: 5, SmallThreshDeg: 15,
		SnapPosDeg: 0.005, SnapVel: 2,
		ReverseBrakeScale: 1,
	},
}
