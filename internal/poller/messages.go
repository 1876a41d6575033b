package poller

import "fmt"

// StartupMessage announces the lookback window when the loop starts.
func StartupMessage(lookbackDays int) string {
	return fmt.Sprintf("Бот запущен, проверяем за последние %d дней", lookbackDays)
}

// FailureMessage describes a tick-level fault to the recipient.
func FailureMessage(err error) string {
	return fmt.Sprintf("Сбой в работе программы: %v", err)
}
