package editor

import "github.com/soralit/fermata"

type (
	// Generator fills the masked regions of a sequence. Implementations run
	// on their own goroutine, outside the model; RunGenerator adapts one to
	// the broker channels.
	Generator interface {
		Generate(sequence fermata.Sequence, masks fermata.Mask) fermata.Sequence
	}

	// NullGenerator is a mockup Generator if you don't want to create a real
	// one. It replies with the agent notes it was handed, so applying the
	// result leaves the score unchanged.
	NullGenerator struct{}
)

func (NullGenerator) Generate(sequence fermata.Sequence, masks fermata.Mask) fermata.Sequence {
	return sequence.FromSource(fermata.Agent)
}

// RunGenerator services generation requests from the broker until closed:
// a send on CloseGenerator stops the loop, and FinishedGenerator is closed so
// waiters can confirm the goroutine is gone. Replies are final sequences; a
// Generator that streams candidates sends those on ToModel itself.
func RunGenerator(broker *Broker, g Generator) {
	for {
		select {
		case <-broker.CloseGenerator:
			close(broker.FinishedGenerator)
			return
		case msg := <-broker.ToGenerator:
			notes := g.Generate(msg.Sequence, msg.Masks)
			TrySend(broker.ToModel, MsgToModel{Data: &GeneratedSequence{Notes: notes, Final: true}})
		}
	}
}
