package event

// Handler receives provider lifecycle events.
type Handler interface {
	OnReady()
	OnQR(codes []string)
	OnPairingCode(code string)
	OnAuthFailure(reason string)
	OnError(reason string)
	OnClose(reason string)
}

// BaseHandler provides no-op implementations of all Handler methods.
// Embed it to implement only the events you care about.
type BaseHandler struct{}

func (BaseHandler) OnReady()                    {}
func (BaseHandler) OnQR(codes []string)         {}
func (BaseHandler) OnPairingCode(code string)   {}
func (BaseHandler) OnAuthFailure(reason string) {}
func (BaseHandler) OnError(reason string)       {}
func (BaseHandler) OnClose(reason string)       {}

var _ Handler = BaseHandler{}
