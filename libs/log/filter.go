package log

// NewFilter wraps next and implements filtering. See the commentary on the
// Option functions for a detailed description of how to configure levels.
// If no options are provided, every leveled log event is squelched.
func NewFilter(next Logger, options ...Option) Logger {
	l := &filter{
		next:           next,
		allowedKeyvals: make(map[keyval]level),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

type filter struct {
	next           Logger
	allowed        level
	allowedKeyvals map[keyval]level
}

type keyval struct {
	key   interface{}
	value interface{}
}

func (l *filter) Debug(msg string, keyvals ...interface{}) {
	if l.allowed&levelDebug == 0 {
		return
	}
	l.next.Debug(msg, keyvals...)
}

func (l *filter) Info(msg string, keyvals ...interface{}) {
	if l.allowed&levelInfo == 0 {
		return
	}
	l.next.Info(msg, keyvals...)
}

func (l *filter) Error(msg string, keyvals ...interface{}) {
	if l.allowed&levelError == 0 {
		return
	}
	l.next.Error(msg, keyvals...)
}

// With implements Logger by constructing a new filter with keyvals appended
// to the wrapped logger.
//
// If a custom level was registered for one of the trailing keyval pairs via
// one of the Allow*With options, that level is used for the new filter,
// overriding whatever level this filter was using - scanning from the last
// pair backward, so the most specific (most recently appended) match wins.
// Otherwise the new filter keeps this filter's current level.
//
// Examples:
//
//	logger = log.NewFilter(logger, log.AllowError(), log.AllowInfoWith("module", "chain"))
//	logger.With("module", "chain").Info("hello") // logged at info
//
//	logger = log.NewFilter(logger, log.AllowError(), log.AllowInfoWith("module", "chain"), log.AllowNoneWith("user", "sam"))
//	logger.With("module", "chain", "user", "sam").Info("hello") // squelched
func (l *filter) With(keyvals ...interface{}) Logger {
	for i := len(keyvals) - 2; i >= 0; i -= 2 {
		for kv, allowed := range l.allowedKeyvals {
			if keyvals[i] == kv.key && keyvals[i+1] == kv.value {
				return &filter{next: l.next.With(keyvals...), allowed: allowed, allowedKeyvals: l.allowedKeyvals}
			}
		}
	}
	return &filter{next: l.next.With(keyvals...), allowed: l.allowed, allowedKeyvals: l.allowedKeyvals}
}

// Option sets a parameter for the filter.
type Option func(*filter)

// AllowAll is an alias for AllowDebug.
func AllowAll() Option {
	return AllowDebug()
}

// AllowDebug allows error, info and debug level log events to pass.
func AllowDebug() Option {
	return allowed(levelError | levelInfo | levelDebug)
}

// AllowInfo allows error and info level log events to pass.
func AllowInfo() Option {
	return allowed(levelError | levelInfo)
}

// AllowError allows only error level log events to pass.
func AllowError() Option {
	return allowed(levelError)
}

// AllowNone allows no leveled log events to pass.
func AllowNone() Option {
	return allowed(0)
}

func allowed(allowed level) Option {
	return func(l *filter) { l.allowed = allowed }
}

// AllowDebugWith allows error, info and debug level log events for a
// specific key/value pair.
func AllowDebugWith(key, value interface{}) Option {
	return func(l *filter) { l.allowedKeyvals[keyval{key, value}] = levelError | levelInfo | levelDebug }
}

// AllowInfoWith allows error and info level log events for a specific
// key/value pair.
func AllowInfoWith(key, value interface{}) Option {
	return func(l *filter) { l.allowedKeyvals[keyval{key, value}] = levelError | levelInfo }
}

// AllowErrorWith allows only error level log events for a specific
// key/value pair.
func AllowErrorWith(key, value interface{}) Option {
	return func(l *filter) { l.allowedKeyvals[keyval{key, value}] = levelError }
}

// AllowNoneWith allows no leveled log events for a specific key/value pair.
func AllowNoneWith(key, value interface{}) Option {
	return func(l *filter) { l.allowedKeyvals[keyval{key, value}] = 0 }
}

type level byte

const (
	levelDebug level = 1 << iota
	levelInfo
	levelError
)
