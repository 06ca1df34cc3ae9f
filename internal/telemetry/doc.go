// Package telemetry обеспечивает наблюдаемость relay.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики и HTTP endpoint /metrics, /healthz
//
// Все компоненты логируют в едином формате; метрики регистрируются
// глобально через promauto и отдаются на metrics_addr.
package telemetry
