/*
Package funnel runs conversational insurance journeys.

A product (health, motor, life) is a registry of chat steps. The engine enters
one step at a time: it skips steps whose conditions fail, picks the persona
variant of each script, simulates typing, and either waits on a widget or
auto-advances. Answers can be edited in place; the journey is replayed from the
edited step. Reaching a checkpoint step saves a projection of the state so the
user can resume later from a card on the dashboard.

# Usage

	f, err := funnel.New("health",
		funnel.WithLogger(logger),
		funnel.WithStore(store),
		funnel.WithOwner(userID),
	)
	if err != nil {
		log.Fatal(err)
	}

	j, prompt, err := f.Start(ctx, funnel.StartOptions{Resume: true})
	if err != nil {
		log.Fatal(err)
	}
	defer j.Close()

	for prompt != nil {
		prompt, err = j.Respond(ctx, prompt.Activation, answer(prompt))
		if err != nil {
			log.Fatal(err)
		}
	}

The runner package drives the same loop from a terminal or a JSON Lines
stream, and pkg/adapters/http exposes it over HTTP.
*/
package funnel
