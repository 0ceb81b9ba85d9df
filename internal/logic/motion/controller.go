package motion

// Pose is the pan/tilt angle pair of a head, in degrees.
type Pose struct {
	Pan  float64 `json:"pan"`
	Tilt float64 `json:"tilt"`
}

// Controller orchestrates the pan and tilt axes of one moving head.
// It sits between the fixture layer (fractions, DMX) and the per-axis
// motion profiles. Axes are independent; Step advances both.
type Controller struct {
	pan  *Axis
	tilt *Axis
}

func NewController(pan, tilt *Axis) *Controller {
	return &Controller{
		pan:  pan,
		tilt: tilt,
	}
}

func (c *Controller) Pan() *Axis  { return c.pan }
func (c *Controller) Tilt() *Axis { return c.tilt }

func (c *Controller) MovePan(deg float64) {
	c.pan.SetTarget(deg)
}

func (c *Controller) MoveTilt(deg float64) {
	c.tilt.SetTarget(deg)
}

// MovePanTilt commands both axes. Each axis follows its own profile; the
// moves are not time-coordinated.
func (c *Controller) MovePanTilt(pan, tilt float64) {
	c.MovePan(pan)
	c.MoveTilt(tilt)
}

// Step advances both axes by dt seconds.
func (c *Controller) Step(dt float64) Pose {
	return Pose{
		Pan:  c.pan.Step(dt),
		Tilt: c.tilt.Step(dt),
	}
}

// Pose returns the current angles without stepping.
func (c *Controller) Pose() Pose {
	return Pose{Pan: c.pan.Angle(), Tilt: c.tilt.Angle()}
}

// Arrived reports whether both axes are at rest on their targets.
func (c *Controller) Arrived() bool {
	return c.pan.Arrived() && c.tilt.Arrived()
}
