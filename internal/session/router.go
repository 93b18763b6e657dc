package session

import "context"

// Handler renders the view for the page a Session is on.
type Handler func(ctx context.Context, s Session) (any, error)

type Router struct {
	home  Handler
	pages map[Page]Handler
}

func NewRouter(home Handler) *Router {
	return &Router{home: home, pages: make(map[Page]Handler)}
}

func (r *Router) Handle(page Page, h Handler) {
	if page == Home {
		r.home = h
		return
	}
	r.pages[page] = h
}

// Dispatch never fails: Home, unregistered, and unknown pages all get the
// Home handler.
func (r *Router) Dispatch(page Page) Handler {
	if h, ok := r.pages[page]; ok && h != nil {
		return h
	}
	return r.home
}
