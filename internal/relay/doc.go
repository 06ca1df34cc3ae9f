// Package relay переносит файлы из очереди запросов в хранилище объектов
// и отвечает в очередь ответов.
//
// # Обзор
//
// Supervisor запускает max_workers воркеров. Каждый Worker владеет своим
// соединением с брокером, двумя очередями (запросы, ответы) и клиентом
// хранилища, поэтому общих блокировок между воркерами нет.
//
// Цикл воркера:
//
//  1. Fetcher забирает один запрос (неблокирующий get, повторы при
//     временных ошибках брокера, пауза 0.5s на пустой очереди)
//  2. Uploader загружает содержимое под ключом Request_GUID
//  3. Publisher публикует ответ с CorrelationId = MessageId запроса
//  4. Запись в журнал (если настроен)
//
// # Ошибки
//
//   - пустая очередь — не ошибка
//   - временная ошибка брокера — retry, после исчерпания воркер умирает
//   - пустой или битый запрос — ответ ERROR, воркер продолжает
//   - бакет/хранилище недоступны — ответ ERROR, воркер останавливается
//   - прочие ошибки и panic — воркер умирает, это видит Supervisor
//
// # Остановка
//
// Остановка кооперативная: запрос на остановку проверяется в начале
// каждой итерации, текущие get/upload/publish не прерываются. Supervisor
// проверяет живость воркеров раз в heartbeat_interval и при первом
// мёртвом воркере останавливает остальные; процесс завершается с кодом 1.
package relay
