package hostfunc

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/sha3"

	"github.com/caffeineduck/tallyvm/executor"
)

// Namespace is the import module every built-in host function lives in.
const Namespace = "seda_v1"

// ExecutionResult stores the guest's result. A second write traps.
func ExecutionResult(c *Call) any {
	return func(ctx context.Context, m api.Module, ptr, length uint32) {
		slot := c.State.Result()
		if slot.Written() {
			c.Logger.Warn("guest wrote its result twice", zap.Uint32("length", length))
			panic(executor.ErrResultAlreadySet)
		}
		if err := slot.Set(c.read(ptr, length)); err != nil {
			panic(err)
		}
	}
}

// Keccak256 hashes length bytes at ptr and writes the 32-byte digest at out.
func Keccak256(c *Call) any {
	return func(ctx context.Context, m api.Module, ptr, length, out uint32) {
		h := sha3.NewLegacyKeccak256()
		h.Write(c.read(ptr, length))
		c.write(out, h.Sum(nil))
	}
}

// Cancelled returns 1 once the call was abandoned, so long-running guests
// can stop early.
func Cancelled(c *Call) any {
	return func(ctx context.Context, m api.Module) uint32 {
		if c.State.Cancelled() {
			return 1
		}
		return 0
	}
}

// Log writes a guest message to the host logger.
func Log(c *Call) any {
	return func(ctx context.Context, m api.Module, level, ptr, length uint32) {
		msg := string(c.read(ptr, length))
		if ce := c.Logger.Check(logLevel(level), msg); ce != nil {
			ce.Write(zap.String("source", "guest"))
		}
	}
}

func logLevel(level uint32) zapcore.Level {
	switch level {
	case LogDebug:
		return zapcore.DebugLevel
	case LogWarn:
		return zapcore.WarnLevel
	case LogError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// HTTPFetch decodes a JSON HTTPFetchRequest at ptr, performs it and keeps
// the JSON HTTPFetchResponse as the last call result. It returns the
// response length; read it with call_result_write.
func HTTPFetch(c *Call) any {
	return func(ctx context.Context, m api.Module, ptr, length uint32) uint32 {
		var resp HTTPFetchResponse

		var req HTTPFetchRequest
		switch {
		case c.State.Cancelled():
			resp.Error = "call cancelled"
		case c.HTTP == nil:
			resp.Error = "http not enabled"
		default:
			if err := json.Unmarshal(c.read(ptr, length), &req); err != nil {
				resp.Error = "invalid request: " + err.Error()
				break
			}
			var err error
			if resp, err = c.HTTP.Fetch(ctx, req); err != nil {
				resp = HTTPFetchResponse{Error: err.Error()}
			}
		}

		if resp.Error != "" {
			c.Logger.Debug("http fetch refused", zap.String("url", req.URL), zap.String("error", resp.Error))
		}

		data, err := json.Marshal(resp)
		if err != nil {
			panic(err)
		}
		c.last = data
		return uint32(len(data))
	}
}

// CallResultWrite copies the last call result to ptr, truncated to length.
func CallResultWrite(c *Call) any {
	return func(ctx context.Context, m api.Module, ptr, length uint32) {
		data := c.last
		if uint32(len(data)) > length {
			data = data[:length]
		}
		c.write(ptr, data)
	}
}
