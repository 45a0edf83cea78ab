// Package smtp оборачивает net/smtp в интерфейсы, подменяемые в тестах.
package smtp

import "io"

// Client описывает минимальный контракт SMTP клиента,
// достаточный для отправки одного письма. Выделен в интерфейс
// для подмены в тестах.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
