/*
Package event defines the SessionEvent tagged union the orchestrator emits to
the terminal UI, and the Bus that delivers it.

Each session publishes to its own topic so a parent session and any
sub-agents it spawns never interleave on the wire; subscribers receive
events in the order they were published.

	bus := event.New()
	defer bus.Close()

	ch, _ := bus.Subscribe(ctx, sessionID)
	go func() {
		for evt := range ch {
			switch e := evt.(type) {
			case event.TextDelta:
				fmt.Print(e.Text)
			case event.SessionEnd:
				return
			}
		}
	}()

	bus.Publish(sessionID, event.TurnStart{SessionID: sessionID, Role: types.RoleAssistant})
*/
package event
