package redis

// KeyPrefix - префиксы для разных типов ключей
type KeyPrefix string

const (
	PrefixRateLimit KeyPrefix = "rate" // rate:clientIP
)

// KeyBuilder - построитель ключей с опциональным namespace
type KeyBuilder struct {
	namespace string
}

func NewKeyBuilder(namespace string) *KeyBuilder {
	return &KeyBuilder{namespace: namespace}
}

// Build создает ключ с префиксом и опциональным namespace
func (k *KeyBuilder) Build(prefix KeyPrefix, parts ...string) string {
	key := string(prefix)

	if k.namespace != "" {
		key = k.namespace + ":" + key
	}

	for _, part := range parts {
		key += ":" + part
	}

	return key
}

// RateLimit создает ключ для счетчика запросов клиента
func (k *KeyBuilder) RateLimit(clientIP string) string {
	return k.Build(PrefixRateLimit, clientIP)
}
