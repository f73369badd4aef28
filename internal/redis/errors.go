package redis

// RedisError - структурированная ошибка операции с Redis
type RedisError struct {
	Op  string // Операция: "connect", "increment", "ping"
	Key string // Ключ, если применим
	Err error  // Оригинальная ошибка
}

func (e *RedisError) Error() string {
	if e.Key != "" {
		return "redis " + e.Op + " '" + e.Key + "': " + e.Err.Error()
	}
	return "redis " + e.Op + ": " + e.Err.Error()
}

func (e *RedisError) Unwrap() error {
	return e.Err
}

func NewRedisError(op, key string, err error) error {
	return &RedisError{
		Op:  op,
		Key: key,
		Err: err,
	}
}
