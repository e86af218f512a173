// Package sl — маленькие помощники для slog, чтобы хендлеры и сервисы
// логировали ошибки в едином виде.
package sl

import "log/slog"

// Err оборачивает ошибку в slog.Attr с ключом "error":
//
//	log.Error("failed to register user", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
