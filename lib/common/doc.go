// Package common contains the ambient pieces shared by the libraries and the command line tool:
//
//   - logger: a formatter for the dragonboat logger facade and the level setup for all named loggers
//   - config: the benchmark and stress configuration read by the command line tool
//
// Library packages obtain their logger with logger.GetLogger("<package>") at init time.
// The returned handle delegates to whatever factory InitLoggers installed, so packages may
// log before or after the command line tool configured the output.
package common
