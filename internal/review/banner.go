package review

import "time"

// BannerKind is the save indicator shown to the reviewer.
type BannerKind int

const (
	BannerNone BannerKind = iota
	BannerSaving
	BannerSuccess
	BannerError
)

func (k BannerKind) String() string {
	switch k {
	case BannerSaving:
		return "saving"
	case BannerSuccess:
		return "success"
	case BannerError:
		return "error"
	default:
		return "idle"
	}
}

// Banner is a transient status message. A zero Expires never expires.
type Banner struct {
	Kind    BannerKind
	Message string
	Expires time.Time
}

// Visible reports whether the banner should still be shown at now.
func (b Banner) Visible(now time.Time) bool {
	if b.Kind == BannerNone {
		return false
	}
	return b.Expires.IsZero() || now.Before(b.Expires)
}
