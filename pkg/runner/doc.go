/*
Package runner drives a journey from a terminal or a pipe.

The Runner prints bot turns, presents each widget through an IOHandler and
feeds the answers back to the journey. Typed answers are decoded by the
widget Capabilities table; an answer that does not fit the widget is rejected
with a ValidationError and the prompt is shown again.

# Usage

	r := runner.NewRunner(
		runner.WithHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)
	if err := r.Run(ctx, journey); err != nil {
		log.Fatal(err)
	}

Typing /edit lists past answers; /edit <n> reopens one. /quit leaves the
journey suspended so it can be resumed from its last checkpoint.
*/
package runner
