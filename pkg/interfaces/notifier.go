package interfaces

// NotificationLevel classifies global notifications raised by the editor.
type NotificationLevel string

const (
	NotificationError   NotificationLevel = "error"
	NotificationWarning NotificationLevel = "warning"
	NotificationInfo    NotificationLevel = "info"
)

// Notifier is the global, host-owned notification channel. Image editor
// transformation failures are published here. Selection and upload failures
// stay inside the library dialog and go to its error area instead.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}

// NotifierFunc adapts a plain function to the Notifier contract.
type NotifierFunc func(level NotificationLevel, message string)

// Notify satisfies Notifier.
func (fn NotifierFunc) Notify(level NotificationLevel, message string) {
	if fn != nil {
		fn(level, message)
	}
}

// LiveProof regenerates an external rendering of the edited document after a
// committed image edit.
type LiveProof interface {
	RequestLiveProof()
}
