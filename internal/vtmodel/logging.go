package vtmodel

import "log"

// logDispatchError logs a recovered damage-listener panic. The model's own
// state is unaffected; the remaining listeners still run.
func logDispatchError(r any) {
	log.Printf("vtmodel: damage listener panicked: %v", r)
}
