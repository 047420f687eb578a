package wire

// Domain is the legal integer range of channel values for a deployment.
type Domain struct {
	Name string
	Min  int
	Max  int
}

// Standard domains.
var (
	// DomainLED is the 8-bit PWM range used by LED deployments.
	DomainLED = Domain{Name: "led", Min: 0, Max: 255}

	// DomainServo is the hobby-servo angle range in degrees.
	DomainServo = Domain{Name: "servo", Min: 0, Max: 180}
)

// Contains reports whether v is a legal value.
func (d Domain) Contains(v int) bool {
	return v >= d.Min && v <= d.Max
}

// Clamp constrains v to the domain.
func (d Domain) Clamp(v int) int {
	if v < d.Min {
		return d.Min
	}
	if v > d.Max {
		return d.Max
	}
	return v
}

// ClampAll clamps every value in place and returns the slice.
func (d Domain) ClampAll(values []int) []int {
	for i, v := range values {
		values[i] = d.Clamp(v)
	}
	return values
}

// DomainByName returns the standard domain with the given name.
func DomainByName(name string) (Domain, bool) {
	switch name {
	case DomainLED.Name:
		return DomainLED, true
	case DomainServo.Name:
		return DomainServo, true
	default:
		return Domain{}, false
	}
}
