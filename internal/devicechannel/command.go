package devicechannel

// Command is an outbound command message. Both fields are always encoded.
type Command struct {
	LED   bool `json:"led"`
	Blink bool `json:"blink"`
}

// SetLEDCommand asks the device to switch its LED on or off.
func SetLEDCommand(state bool) Command {
	return Command{LED: state, Blink: false}
}

// BlinkCommand asks the device to blink. The led value carries no meaning and
// is always false.
func BlinkCommand() Command {
	return Command{LED: false, Blink: true}
}

// Kind names the command for logs and metrics.
func (c Command) Kind() string {
	if c.Blink {
		return "blink"
	}
	return "led"
}
