package bot

const welcomeText = `🌍 *Welcome to linkgist\!*

Send me a link and I will reply with a short English summary of it, whatever the original language is\.

– Websites and articles
– RSS / Atom / JSON feeds \(latest items\)
– YouTube videos with captions \(youtube\.com/watch?v\=… or youtu\.be/…\)

Shorts, playlists and search pages are not supported\.`

func (b *Bot) handleStartCommand(chatID int64) error {
	return b.sendMessage(chatID, welcomeText)
}
