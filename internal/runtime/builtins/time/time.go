// Package time registers the clock and scheduling builtins.
package time

import (
	"fmt"
	stdtime "time"

	"greyvm/internal/runtime/builtins"
	"greyvm/internal/value"
)

// MaxWait caps a single wait call.
const MaxWait = 300 * stdtime.Second

func init() {
	registerTime()
	registerWait()
	registerYield()
	registerCurrentDate()
}

func registerTime() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{Name: "time"},
		Call: func(call *value.NativeCall) (value.Value, error) {
			return value.Number(call.Machine.Elapsed().Seconds()), nil
		},
	})
}

// wait suspends the calling VM without blocking the goroutine that drives
// it; the scheduler keeps running other VMs meanwhile.
func registerWait() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			Name:       "wait",
			ParamNames: []string{"seconds"},
			Defaults:   map[string]value.Value{"seconds": value.Number(1)},
		},
		Call: func(call *value.NativeCall) (value.Value, error) {
			secs := call.Arg(0).ToNumber()
			if secs < 0 {
				return value.Null, fmt.Errorf("wait: negative duration %v", secs)
			}
			d := stdtime.Duration(secs * float64(stdtime.Second))
			if d > MaxWait {
				d = MaxWait
			}

			f := value.NewFuture()
			timer := stdtime.AfterFunc(d, func() { f.Resolve(value.Null) })
			if ctx := call.Context; ctx != nil {
				go func() {
					select {
					case <-ctx.Done():
						if timer.Stop() {
							f.Reject(ctx.Err())
						}
					case <-f.Done():
					}
				}()
			}
			return value.Pending(f), nil
		},
	})
}

func registerYield() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{Name: "yield"},
		Call: func(call *value.NativeCall) (value.Value, error) {
			call.Machine.Yield()
			return value.Null, nil
		},
	})
}

func registerCurrentDate() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{Name: "current_date"},
		Call: func(*value.NativeCall) (value.Value, error) {
			return value.Str(stdtime.Now().Format("02/Jan/2006 - 15:04")), nil
		},
	})
}
