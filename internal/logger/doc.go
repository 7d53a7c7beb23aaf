// Package logger provides component-filtered structured logging for the
// decipher engine and its tools.
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentLocator)
//	log.Debug("entry pattern matched", logger.Fields{"pattern": "sig-or", "name": "mthr"})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Components[logger.ComponentInterpreter] = true
//	logger.SetGlobalLogger(logger.New(config))
//
// File outputs can rotate. Set Rotation in a JSON config or export
// SIGDECIPHER_LOG_MAX_SIZE, SIGDECIPHER_LOG_MAX_AGE, SIGDECIPHER_LOG_MAX_BACKUPS
// and SIGDECIPHER_LOG_COMPRESS alongside SIGDECIPHER_LOG_OUTPUT=file:<path>.
//
// Components:
//   - ComponentApp: command-line tools
//   - ComponentEngine: resolve/decode orchestration
//   - ComponentLocator: entry function discovery
//   - ComponentExtractor: helper discovery
//   - ComponentInterpreter: statement execution traces
//   - ComponentCache: version cache population
//   - ComponentAuxMap: auxiliary map extraction
//   - ComponentOracle: reference JavaScript evaluation
//   - ComponentSource: script loading and archiving
package logger
