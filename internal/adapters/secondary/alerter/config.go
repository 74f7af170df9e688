package alerter

type Config struct {
	BotToken        string  `envconfig:"BOT_TOKEN"` // пустой - используется токен основного бота
	ChatID          int64   `envconfig:"CHAT_ID"`
	MessageThreadID *int64  `envconfig:"MESSAGE_THREAD_ID"`
	AdminIDs        []int64 `envconfig:"ADMIN_IDS"` // личные чаты админов, дублируют алерты
}

// Enabled есть хотя бы один получатель
func (c *Config) Enabled() bool {
	return c != nil && (c.ChatID != 0 || len(c.AdminIDs) > 0)
}
