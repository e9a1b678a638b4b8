package bot

import (
	"fmt"
	"strings"

	"github.com/mediakeep/mediakeep/internal/domain"
)

const (
	msgAdminsOnly    = "⚠️ Only admins can perform this action."
	msgInternalError = "❌ Something went wrong. Please try again."
)

const welcomeText = `🤖 *Welcome to MediaKeep* 🤖

This bot lets administrators upload and manage media files.

Available commands:
📤 Upload any file to store it
🔍 /search <keyword> - Search for files
📊 /stats - View bot statistics
🔗 /link <file_id> - Get a shareable link
📝 /editdesc <file_id> <description> - Edit file description
✏️ /editname <file_id> <new_name> - Edit file name
🏷️ /addtag <file_id> <tag> - Add tag to file
🏷️ /removetag <file_id> <tag> - Remove tag from file
👤 /addadmin <user_id> - Add new admin
👤 /removeadmin <user_id> - Remove admin
👥 /listadmins - List all admins
🗑️ /deletefile <file_id> - Delete a file
ⓘ /info <file_id> - Get file information`

func renderNotFound(fileID string) string {
	return fmt.Sprintf("❌ No file found with ID: %s", fileID)
}

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return "None"
	}
	return strings.Join(tags, ", ")
}

func renderUploaded(file *domain.FileRecord) string {
	return fmt.Sprintf(
		"✅ File uploaded successfully!\nFile ID: `%s`\nName: %s\nType: %s\nTags: %s",
		file.ID, file.Name, file.Kind, renderTags(file.Tags),
	)
}

func renderSearchResults(keyword string, results []*domain.FileRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Found %d files matching '%s':\n\n", len(results), keyword)

	for i, file := range results {
		fmt.Fprintf(&sb, "%d. *%s*\n   ID: `%s`\n   Type: %s\n   Tags: %s\n\n",
			i+1, file.Name, file.ID, file.Kind, renderTags(file.Tags))
	}

	return sb.String()
}

func renderStats(snapshot *domain.StatsSnapshot) string {
	return fmt.Sprintf(
		"📊 *Bot Statistics*\n\nTotal Files: %d\nTotal Downloads: %d\nTotal Searches: %d\nTotal Users: %d\nLast Updated: %s",
		snapshot.TotalFiles,
		snapshot.TotalDownloads,
		snapshot.TotalSearches,
		snapshot.TotalUsers,
		snapshot.LastUpdated.Format("2006-01-02 15:04:05"),
	)
}

func renderFileInfo(file *domain.FileRecord) string {
	description := file.Description
	if description == "" {
		description = "None"
	}

	return fmt.Sprintf(
		"ⓘ *File Information*\n\nName: %s\nType: %s\nID: `%s`\nDescription: %s\nTags: %s\nUploaded by: %d\nUpload date: %s\nDownloads: %d",
		file.Name,
		file.Kind,
		file.ID,
		description,
		renderTags(file.Tags),
		file.UploadedBy,
		file.UploadedAt.Format("2006-01-02 15:04:05"),
		file.DownloadCount,
	)
}

func renderAdminList(entries []*domain.AdminEntry) string {
	var sb strings.Builder
	sb.WriteString("👥 *Admin List*\n\n")

	if len(entries) == 0 {
		sb.WriteString("No admins found.")
		return sb.String()
	}

	for _, entry := range entries {
		if entry.Origin == domain.AdminOriginBootstrap {
			fmt.Fprintf(&sb, "• %d (Default)\n", entry.UserID)
		} else {
			fmt.Fprintf(&sb, "• %d (Added on %s)\n", entry.UserID, entry.AddedAt.Format("2006-01-02"))
		}
	}

	return sb.String()
}
