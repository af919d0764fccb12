package qa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// State identifies the stage a pipeline invocation is in. States advance
// strictly in order; Errored is terminal and reachable from any stage.
type State string

const (
	StateIdle        State = "idle"
	StateFiltering   State = "filtering"
	StateTranslating State = "translating"
	StateExecuting   State = "executing"
	StateComposing   State = "composing"
	StateDone        State = "done"
	StateErrored     State = "errored"
)

// Pipeline sequences filtering, translation, execution, and composition for
// one question. Every invocation is independent; the pipeline holds no
// per-request state, so one Pipeline serves concurrent requests.
//
// The output contract: the fragment channel always carries at least one
// fragment and always closes. No failure inside the pipeline reaches the
// caller as an error.
type Pipeline struct {
	translator *Translator
	executor   *Executor
	composer   *Composer
	denylist   []string
	logger     *slog.Logger
}

// NewPipeline wires a pipeline from its stages. Denylist entries are matched
// as substrings of the incoming question.
func NewPipeline(translator *Translator, executor *Executor, composer *Composer, denylist []string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		translator: translator,
		executor:   executor,
		composer:   composer,
		denylist:   denylist,
		logger:     logger.With("component", "qa.pipeline"),
	}
}

// Ask answers question as a stream of text fragments.
func (p *Pipeline) Ask(ctx context.Context, question string) <-chan string {
	out := make(chan string, 10)

	go func() {
		defer close(out)

		state := StateFiltering
		defer func() {
			// Nothing may escape the pipeline boundary.
			if r := recover(); r != nil {
				p.logger.Error("pipeline panicked", "state", state, "panic", r)
				p.deliver(ctx, out, fmt.Sprintf("系统错误：%v", r))
			}
		}()

		if term, rejected := p.filter(question); rejected {
			p.logger.Warn("question rejected by denylist", "term", term)
			p.deliver(ctx, out, MsgRejected)
			return
		}

		state = StateTranslating
		cypher, err := p.translator.Translate(ctx, question)
		if err != nil {
			state = StateErrored
			p.logger.Error("translation failed", "error", err)
			p.deliver(ctx, out, MsgTranslateError)
			return
		}

		state = StateExecuting
		rows := p.executor.Execute(ctx, cypher)

		state = StateComposing
		for fragment := range p.composer.Compose(ctx, question, rows) {
			if !p.deliver(ctx, out, fragment) {
				return
			}
		}

		state = StateDone
		p.logger.Info("question answered", "rows", len(rows))
	}()

	return out
}

// filter reports whether question contains a denylisted term.
func (p *Pipeline) filter(question string) (string, bool) {
	for _, term := range p.denylist {
		if term != "" && strings.Contains(question, term) {
			return term, true
		}
	}
	return "", false
}

// deliver sends fragment unless the caller has gone away.
func (p *Pipeline) deliver(ctx context.Context, out chan<- string, fragment string) bool {
	select {
	case <-ctx.Done():
		return false
	case out <- fragment:
		return true
	}
}
