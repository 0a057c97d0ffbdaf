package log

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/studio-labs/assessor/pkg/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StructuredLogger emits one log line per operation phase with a stable set of
// fields (operation, request id, caller supplied attributes).
type StructuredLogger struct {
	name  string
	level zap.AtomicLevel
	ctx   context.Context
}

// NewDebugLogger returns a logger whose steps are logged at debug level while
// errors are always logged at error level.
func NewDebugLogger(name string) *StructuredLogger {
	return &StructuredLogger{name: name, level: zap.NewAtomicLevelAt(zap.DebugLevel)}
}

func (l *StructuredLogger) WithContext(ctx context.Context) *StructuredLogger {
	return &StructuredLogger{name: l.name, level: l.level, ctx: ctx}
}

func (l *StructuredLogger) Operation(op string) *OperationBuilder {
	b := &OperationBuilder{logger: l, op: op}
	if l.ctx != nil {
		if id := requestid.FromContext(l.ctx); id != "" {
			b.fields = append(b.fields, zap.String("request_id", id))
		}
	}
	return b
}

type OperationBuilder struct {
	logger *StructuredLogger
	op     string
	fields []zap.Field
}

func (b *OperationBuilder) WithString(key, value string) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value))
	return b
}

func (b *OperationBuilder) WithInt(key string, value int) *OperationBuilder {
	b.fields = append(b.fields, zap.Int(key, value))
	return b
}

func (b *OperationBuilder) WithBool(key string, value bool) *OperationBuilder {
	b.fields = append(b.fields, zap.Bool(key, value))
	return b
}

func (b *OperationBuilder) WithUUID(key string, value uuid.UUID) *OperationBuilder {
	b.fields = append(b.fields, zap.String(key, value.String()))
	return b
}

func (b *OperationBuilder) WithAny(key string, value any) *OperationBuilder {
	b.fields = append(b.fields, zap.Any(key, value))
	return b
}

func (b *OperationBuilder) Build() *OperationTracer {
	return &OperationTracer{
		logger: zap.L().Named(b.logger.name).WithOptions(zap.AddCallerSkip(1)),
		level:  b.logger.level,
		op:     b.op,
		fields: b.fields,
		start:  time.Now(),
	}
}

// OperationTracer is the built form of an operation. Each call to Step, Success
// or Error starts a new entry which is written by Log.
type OperationTracer struct {
	logger *zap.Logger
	level  zap.AtomicLevel
	op     string
	fields []zap.Field
	start  time.Time
}

func (t *OperationTracer) Step(name string) *Entry {
	return t.entry(t.level.Level(), "step", zap.String("step", name))
}

func (t *OperationTracer) Success() *Entry {
	return t.entry(t.level.Level(), "success", zap.Duration("duration", time.Since(t.start)))
}

func (t *OperationTracer) Error(err error) *Entry {
	return t.entry(zap.ErrorLevel, "error", zap.Error(err), zap.Duration("duration", time.Since(t.start)))
}

func (t *OperationTracer) entry(level zapcore.Level, phase string, extra ...zap.Field) *Entry {
	fields := make([]zap.Field, 0, len(t.fields)+len(extra)+2)
	fields = append(fields, zap.String("operation", t.op), zap.String("phase", phase))
	fields = append(fields, t.fields...)
	fields = append(fields, extra...)
	return &Entry{logger: t.logger, level: level, msg: t.op, fields: fields}
}

type Entry struct {
	logger *zap.Logger
	level  zapcore.Level
	msg    string
	fields []zap.Field
}

func (e *Entry) WithString(key, value string) *Entry {
	e.fields = append(e.fields, zap.String(key, value))
	return e
}

func (e *Entry) WithInt(key string, value int) *Entry {
	e.fields = append(e.fields, zap.Int(key, value))
	return e
}

func (e *Entry) WithBool(key string, value bool) *Entry {
	e.fields = append(e.fields, zap.Bool(key, value))
	return e
}

func (e *Entry) WithUUID(key string, value uuid.UUID) *Entry {
	e.fields = append(e.fields, zap.String(key, value.String()))
	return e
}

func (e *Entry) WithAny(key string, value any) *Entry {
	e.fields = append(e.fields, zap.Any(key, value))
	return e
}

func (e *Entry) Log() {
	if ce := e.logger.Check(e.level, e.msg); ce != nil {
		ce.Write(e.fields...)
	}
}
