package storefront

import "fmt"

// Page lifecycle signals reported by the tab.
const (
	SignalDOMReady   = "dom"
	SignalWindowLoad = "load"
	SignalImage      = "image"
)

// Lifecycle forwards a page lifecycle signal to the view's preloader.
func (s *Service) Lifecycle(v *View, kind string, images int) error {
	switch kind {
	case SignalDOMReady:
		v.pre.DOMReady(images)
	case SignalWindowLoad:
		v.pre.WindowLoad()
	case SignalImage:
		v.pre.ImageSettled()
	default:
		return fmt.Errorf("unknown lifecycle signal %q", kind)
	}
	return nil
}
