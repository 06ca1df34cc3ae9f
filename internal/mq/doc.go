// Package mq предоставляет очереди запросов и ответов поверх RabbitMQ.
//
// Структура:
//   - connection.go — соединение воркера и открытие очередей
//   - queue.go      — RequestQueue (неблокирующий get) и ReplyQueue (publish)
//   - errors.go     — ErrNoMessage и классификация временных ошибок
//
// Каждый воркер владеет своим соединением и двумя каналами; общих
// ресурсов между воркерами нет. Администрирование брокера (создание
// очередей, exchanges) пакет не выполняет.
package mq
