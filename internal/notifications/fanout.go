package notifications

// Broadcaster matches the engine's notifier contract.
type Broadcaster interface {
	Broadcast(event string, data interface{})
}

type fanout []Broadcaster

// Fanout combines several sinks into one. Nil sinks are skipped.
func Fanout(sinks ...Broadcaster) Broadcaster {
	var out fanout
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f fanout) Broadcast(event string, data interface{}) {
	for _, s := range f {
		s.Broadcast(event, data)
	}
}
