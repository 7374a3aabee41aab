package avito

import "context"

// TokenProvider отдаёт действующий bearer-токен API Авито. Протокол обновления
// токена живёт снаружи: клиенту важно лишь получить актуальное значение.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider отдаёт фиксированный токен из конфигурации.
type StaticTokenProvider struct {
	token string
}

func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	return p.token, nil
}
