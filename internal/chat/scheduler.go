package chat

import (
	"context"
	"time"
)

// Emitter receives everything the bot sends to one chat.
type Emitter func(Outbound)

// Scheduler plays scripts on a single loop. Each step emits a typing
// indicator, waits its scaled delay and then emits the message.
type Scheduler struct {
	scale float64
}

// NewScheduler multiplies every step delay by scale. Zero or less plays
// scripts without waiting.
func NewScheduler(scale float64) *Scheduler {
	if scale < 0 {
		scale = 0
	}
	return &Scheduler{scale: scale}
}

// Immediate returns a scheduler that never waits.
func Immediate() *Scheduler {
	return &Scheduler{}
}

func (s *Scheduler) delay(d time.Duration) time.Duration {
	if s == nil || s.scale == 0 {
		return 0
	}
	return time.Duration(float64(d) * s.scale)
}

// Play emits the script in order. It returns ctx.Err() if ctx ends first;
// steps not yet shown are dropped.
func (s *Scheduler) Play(ctx context.Context, script Script, emit Emitter) error {
	for _, step := range script {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(Outbound{Type: TypeTyping})
		if d := s.delay(step.Delay); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		emit(Outbound{
			Type:    TypeMessage,
			Role:    RoleAssistant,
			Text:    step.Message,
			Options: step.Options,
			Prompt:  step.Prompt,
		})
	}
	return nil
}
