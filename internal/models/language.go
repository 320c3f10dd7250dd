package models

import "fmt"

// Language constants
const (
	LangEnglish = "en"
)

// Translation is a map of message keys to translated text
type Translation map[string]string

// Translations stores all language translations
var Translations = map[string]Translation{
	LangEnglish: {
		"default_start":  "👋 Welcome to File Sharing Bot!\n\nUse /help to learn how to use this bot.",
		"default_help":   "📖 <b>Help Guide</b>\n\n• Use deep links to access files\n• Contact owner for support",
		"help_button":    "Help",
		"owner_only":     "This command is only available to the bot owner.",
		"unknown_input":  "Please send /help to get help.",
		"internal_error": "❌ Something went wrong, please try again later.",

		"cmd_desc_start":      "Start the bot",
		"cmd_desc_help":       "Show help",
		"cmd_desc_upload":     "Start an upload session",
		"cmd_desc_done":       "Finish adding files",
		"cmd_desc_cancel":     "Cancel the current upload",
		"cmd_desc_broadcast":  "Broadcast a message to all users",
		"cmd_desc_stats":      "Show bot statistics",
		"cmd_desc_setmessage": "Set the start/help text",
		"cmd_desc_setimage":   "Set the start/help image",

		"upload_started": "📁 <b>Upload Session Started</b>\n\nPlease send files (photos, videos, documents, audio):\n" +
			"- Send multiple files one by one\n- Use /d when done\n- Use /c to cancel",
		"upload_in_progress": "⚠️ An upload session is already in progress. Use /d to finish or /c to cancel it.",
		"upload_not_started": "No upload session in progress. Use /upload to start one.",
		"upload_file_added":  "✅ %s added! (%d files)",
		"upload_unsupported": "❌ Unsupported file type. Please send photos, videos, documents or audio.",
		"upload_empty":       "❌ No files uploaded. Session cancelled.",
		"upload_cancelled":   "❌ Upload session cancelled.",
		"upload_wrong_step":  "⚠️ Please use the buttons above to continue, or /c to cancel.",
		"upload_summary":     "📊 <b>Upload Summary</b>\n📄 Files: %d\n📁 Types: %s\n\n🔒 <b>Protect Content?</b>\nPrevents forwarding/saving for users",
		"protect_yes":        "✅ Protect Content",
		"protect_no":         "❌ Don't Protect",
		"protect_chosen":     "🔒 Content Protection: %s\n\n⏰ <b>Auto-delete Timer?</b>\nFiles will be automatically deleted from the user's chat after the specified time",
		"timer_invalid":      "❌ Invalid timer choice.",
		"upload_created":     "🎉 <b>Upload Session Created!</b>\n\n📊 Summary:\n• Files: %d\n• Protect Content: %s\n• Auto-delete: %s\n\n🔗 <b>Deep Link:</b>\n<code>%s</code>\n\n📋 Share this link with users to access the files.",
		"upload_save_failed": "❌ Could not save the upload session, please choose the timer again.",
		"on":                 "✅ ON",
		"off":                "❌ OFF",
		"yes":                "✅ Yes",
		"no":                 "❌ No",

		"delivery_not_found":  "❌ Invalid or expired session link.",
		"delivery_starting":   "📁 Downloading %d file(s)...",
		"delivery_failed":     "❌ Error sending file %d",
		"delivery_autodelete": "⚠️ These files will be automatically deleted in %s.",

		"broadcast_prompt":      "Please send the broadcast message (text, photo, video, or document):",
		"broadcast_unsupported": "❌ Unsupported broadcast content. Send text, a photo, a video or a document.",
		"broadcast_starting":    "📢 Starting broadcast to %d users...",
		"broadcast_done":        "📊 Broadcast Completed:\n✅ Success: %d\n❌ Failed: %d\n📊 Total: %d",

		"stats": "📊 <b>Bot Statistics</b>\n\n👥 Total Users: <code>%d</code>\n✅ Active Users (48h): <code>%d</code>\n" +
			"📁 Total Upload Sessions: <code>%d</code>\n📄 Total Files Uploaded: <code>%d</code>\n🕒 Generated: <code>%s</code>",

		"setmessage_choose":   "Which message do you want to set?",
		"setmessage_prompt":   "Please send the new %s message text:",
		"setmessage_done":     "✅ %s message updated!",
		"setimage_usage":      "Please reply to an image with /setimage",
		"setimage_choose":     "Set as start image or help image?",
		"setimage_done":       "✅ %s image updated!",
		"setimage_no_file":    "❌ Error: Could not get file ID",
		"start_message_label": "Start",
		"help_message_label":  "Help",
	},
}

// GetTranslation returns the text for key, falling back to English and then to the key itself
func GetTranslation(lang, key string) string {
	if translation, ok := Translations[lang][key]; ok {
		return translation
	}
	if translation, ok := Translations[LangEnglish][key]; ok {
		return translation
	}
	return key
}

// T formats the English text for key
func T(key string, args ...interface{}) string {
	text := GetTranslation(LangEnglish, key)
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}
