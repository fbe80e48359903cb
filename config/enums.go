package config

// Specification of requested stylesheet rendering mode.
// ENUM(compact, expanded)
type OutputMode int

// Specification of requested output type.
// ENUM(css, bundle)
type OutputFmt int

func (o OutputFmt) Bundled() bool {
	return o == OutputFmtBundle
}

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtCss:
		return ".css"
	case OutputFmtBundle:
		return ".zip"
	default:
		// this should never happen
		panic("unsupported format requested")
	}
}
