package bot

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/enzomtp/edtbot/internal/model"
	"github.com/enzomtp/edtbot/internal/render"
)

const embedColor = 0x3498db

// BuildScheduleEmbed formats a schedule as a Discord embed, one field
// per date, skipping "no class" placeholder rows.
func BuildScheduleEmbed(courses []model.Course) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     "📚 Emploi du temps EPSI",
		Color:     embedColor,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	byDate := make(map[string][]model.Course)
	var dates []string
	for _, c := range courses {
		if !c.Named() {
			continue
		}
		if _, seen := byDate[c.Date]; !seen {
			dates = append(dates, c.Date)
		}
		byDate[c.Date] = append(byDate[c.Date], c)
	}

	if len(dates) == 0 {
		embed.Description = msgNoCoursesPeriod
		return embed
	}
	sort.Strings(dates)

	for _, date := range dates {
		name := date
		if d, err := time.Parse("2006-01-02", date); err == nil {
			name = render.LongDate(d)
		}

		var lines []string
		for _, c := range byDate[date] {
			lines = append(lines, fmt.Sprintf("**%s**\n%s\n%s\n%s\n",
				c.Name, c.TimeRange(), c.RoomLabel(), c.TeacherLabel()))
		}

		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: strings.Join(lines, "\n"),
		})
	}
	return embed
}
