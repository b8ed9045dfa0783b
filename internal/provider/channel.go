package provider

// ContactMethods describes which contact channels a prospect supports.
type ContactMethods struct {
	HasEmail bool
	HasPhone bool
}

// BestChannel picks an outreach channel from the available contact methods.
// Email is preferred over phone; a prospect with neither falls back to email.
func BestChannel(m ContactMethods) string {
	switch {
	case m.HasEmail:
		return "email"
	case m.HasPhone:
		return "phone"
	default:
		return "email"
	}
}
