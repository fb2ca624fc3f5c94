package lang

const (
	ErrorLinkInvalid         = "error.link.invalid"
	ErrorMetadataUnavailable = "error.metadata.unavailable"
	ErrorSessionExpired      = "error.session.expired"
	ErrorFetchTooLarge       = "error.fetch.too_large"
	ErrorFetchNetwork        = "error.fetch.network"
	ErrorFetchTimeout        = "error.fetch.timeout"
	ErrorFetchUnavailable    = "error.fetch.unavailable"
	ErrorFetchUnexpected     = "error.fetch.unexpected"
	ErrorVariantUnknown      = "error.variant.unknown"
	ErrorRateLimited         = "error.rate_limited"
	ErrorUnknownCommand      = "error.unknown_command"
	ErrorDiagnostic          = "error.diagnostic"

	StatusChecking      = "status.checking"
	StatusChooseVariant = "status.choose_variant"
	StatusDownloading   = "status.downloading"
	StatusUploading     = "status.uploading"

	InfoStart      = "info.start"
	InfoHelp       = "info.help"
	InfoStats      = "info.stats"
	InfoStatsTotal = "info.stats.total"
	InfoStatsTime  = "info.stats.time"
	InfoDuration   = "info.duration"
)

var messages = map[string]map[string]string{
	ErrorLinkInvalid: {
		"en": "This does not look like a link I can fetch. Send a single http(s) URL.",
		"ru": "Это не похоже на ссылку, которую я могу скачать. Отправьте одну http(s) ссылку.",
	},
	ErrorMetadataUnavailable: {
		"en": "Could not read information about this video. It may be private, removed or unsupported.",
		"ru": "Не удалось получить информацию о видео. Возможно, оно приватное, удалено или не поддерживается.",
	},
	ErrorSessionExpired: {
		"en": "This link has expired. Please send it again.",
		"ru": "Ссылка устарела. Отправьте её ещё раз.",
	},
	ErrorFetchTooLarge: {
		"en": "The file is larger than the %s limit.",
		"ru": "Файл больше лимита %s.",
	},
	ErrorFetchNetwork: {
		"en": "A network error interrupted the download. Please try again.",
		"ru": "Загрузка прервана сетевой ошибкой. Попробуйте ещё раз.",
	},
	ErrorFetchTimeout: {
		"en": "The download took too long and was stopped.",
		"ru": "Загрузка заняла слишком много времени и была остановлена.",
	},
	ErrorFetchUnavailable: {
		"en": "The source refused to serve this content.",
		"ru": "Источник не отдаёт этот контент.",
	},
	ErrorFetchUnexpected: {
		"en": "Something went wrong while fetching the file.",
		"ru": "Что-то пошло не так при загрузке файла.",
	},
	ErrorVariantUnknown: {
		"en": "This quality is not available. Please choose one of the offered options.",
		"ru": "Это качество недоступно. Выберите один из предложенных вариантов.",
	},
	ErrorRateLimited: {
		"en": "Too many links. Please slow down and try again in a minute.",
		"ru": "Слишком много ссылок. Подождите минуту и попробуйте снова.",
	},
	ErrorUnknownCommand: {
		"en": "Unknown command. Use /help to see what I can do.",
		"ru": "Неизвестная команда. Используйте /help, чтобы узнать, что я умею.",
	},
	ErrorDiagnostic: {
		"en": "%s\nDetails: %s",
		"ru": "%s\nПодробности: %s",
	},
	StatusChecking: {
		"en": "Checking the link…",
		"ru": "Проверяю ссылку…",
	},
	StatusChooseVariant: {
		"en": "%s\nChoose quality:",
		"ru": "%s\nВыберите качество:",
	},
	StatusDownloading: {
		"en": "Downloading %s…",
		"ru": "Скачиваю %s…",
	},
	StatusUploading: {
		"en": "Uploading %s…",
		"ru": "Отправляю %s…",
	},
	InfoStart: {
		"en": "Send me a video link (YouTube, VK, Rutube, Vimeo…) to pick a quality, or any direct file link to get the file back.\nFiles up to %s are supported.",
		"ru": "Пришлите ссылку на видео (YouTube, VK, Rutube, Vimeo…), чтобы выбрать качество, или прямую ссылку на файл.\nПоддерживаются файлы до %s.",
	},
	InfoHelp: {
		"en": "/start - welcome message\n/help - this help\n/stats - your transfer statistics\n\nSizes marked with ≈ are estimates.",
		"ru": "/start - приветствие\n/help - эта справка\n/stats - ваша статистика загрузок\n\nРазмеры со знаком ≈ приблизительные.",
	},
	InfoStats: {
		"en": "Delivered: %d\nFailed: %d\nTotal: %s",
		"ru": "Доставлено: %d\nОшибок: %d\nВсего: %s",
	},
	InfoStatsTotal: {
		"en": "Since start: %d delivered, %d failed, %d in progress",
		"ru": "С момента запуска: доставлено %d, ошибок %d, в работе %d",
	},
	InfoStatsTime: {
		"en": "%s links: %s on average, %s at most (%d)",
		"ru": "Ссылки %s: в среднем %s, максимум %s (%d)",
	},
	InfoDuration: {
		"en": "Duration: %s",
		"ru": "Длительность: %s",
	},
}
