package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/enzomtp/edtbot/internal/model"
	"github.com/enzomtp/edtbot/internal/render"
	"github.com/enzomtp/edtbot/internal/store"
)

// User-facing messages. Everything the bot says is French.
const (
	msgRegisterFirst     = "Merci d'enregistrer votre nom d'utilisateur avec la commande `/register` ou de spécifier un nom d'utilisateur directement."
	msgBadDate           = "Format de date invalide. Veuillez utiliser le format JJ/MM/AAAA."
	msgNoCoursesDay      = "Aucun cours trouvé pour la date spécifiée."
	msgNoCoursesWeek     = "Aucun cours trouvé pour la semaine spécifiée."
	msgNoCoursesPeriod   = "Aucun cours trouvé pour la période spécifiée."
	msgFetchError        = "Une erreur est survenue lors de la récupération de l'emploi du temps. Veuillez réessayer plus tard."
	msgRenderError       = "Une erreur est survenue lors de la génération de l'image de l'emploi du temps."
	msgStoreError        = "Une erreur est survenue lors de l'enregistrement. Veuillez réessayer plus tard."
	msgAlreadyRegistered = "Vous êtes déjà enregistré. Pour changer votre nom d'utilisateur, utilisez la commande `/unregister` d'abord."
	msgNotRegistered     = "Vous n'êtes pas enregistré."
	msgUnregistered      = "Votre enregistrement a été supprimé avec succès."
	msgRegisterRequired  = "Vous devez d'abord vous enregistrer avant de gérer vos paramètres."
)

var toggleChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "Activer", Value: "Activer"},
	{Name: "Désactiver", Value: "Désactiver"},
}

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "day",
		Description: "Obtenir votre emploi du temps EPSI pour une journée spécifique",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "username", Description: "Nom d'utilisateur EPSI (optionnel si vous êtes enregistré)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "date", Description: "Date au format JJ/MM/AAAA (optionnel, utilise la date du jour par défaut)"},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "image", Description: "Si activé, envoie l'emploi du temps sous forme d'image"},
		},
	},
	{
		Name:        "week",
		Description: "Obtenir votre emploi du temps EPSI pour une semaine complète",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "username", Description: "Nom d'utilisateur EPSI (optionnel si vous êtes enregistré)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "date", Description: "Date au format JJ/MM/AAAA (optionnel, utilise la date du jour par défaut)"},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "image", Description: "Si activé, envoie l'emploi du temps sous forme d'image"},
		},
	},
	{
		Name:        "edt",
		Description: "Obtenir votre emploi du temps EPSI",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "username", Description: "Nom d'utilisateur EPSI (optionnel si vous êtes enregistré)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "start_time", Description: "Date de début au format JJ/MM/AAAA (optionnel)"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "end_time", Description: "Date de fin au format JJ/MM/AAAA (optionnel)"},
			{Type: discordgo.ApplicationCommandOptionBoolean, Name: "image", Description: "Si activé, envoie l'emploi du temps sous forme d'image"},
		},
	},
	{
		Name:        "register",
		Description: "Enregistrer votre nom d'utilisateur EPSI",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "username", Description: "Votre nom d'utilisateur EPSI", Required: true},
		},
	},
	{
		Name:        "unregister",
		Description: "Supprimer votre enregistrement EPSI",
	},
	{
		Name:        "settings",
		Description: "Gérer vos paramètres",
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionString, Name: "daily", Description: "Activer/Désactiver les notifications quotidiennes", Choices: toggleChoices},
			{Type: discordgo.ApplicationCommandOptionString, Name: "weekly", Description: "Activer/Désactiver les notifications hebdomadaires", Choices: toggleChoices},
			{Type: discordgo.ApplicationCommandOptionString, Name: "register", Description: "Enregistrer ou changer votre nom d'utilisateur EPSI"},
			{Type: discordgo.ApplicationCommandOptionString, Name: "unregister", Description: "Supprimer votre enregistrement", Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Désenregistrer", Value: "Désenregistrer"},
			}},
		},
	},
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	name := i.ApplicationCommandData().Name
	user := interactionUser(i)
	slog.Info("command invoked", "command", name, "user", user.ID)

	switch name {
	case "day":
		b.handleDay(s, i)
	case "week":
		b.handleWeek(s, i)
	case "edt":
		b.handleEdt(s, i)
	case "register":
		b.handleRegister(s, i)
	case "unregister":
		b.handleUnregister(s, i)
	case "settings":
		b.handleSettings(s, i)
	}
}

func (b *Bot) handleDay(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	username, ok := b.resolveUsername(rsp, interactionUser(i).ID, opts)
	if !ok {
		return
	}

	date := time.Now()
	if raw := optString(opts, "date"); raw != "" {
		d, err := ParseUserDate(raw, time.Local)
		if err != nil {
			rsp.text(msgBadDate)
			return
		}
		date = d
	}

	courses, err := b.client.FetchDay(context.Background(), username, date)
	if err != nil {
		slog.Error("fetch day schedule", "user", username, "error", err)
		rsp.text(msgFetchError)
		return
	}
	b.respondSchedule(rsp, courses, opts, false, true, msgNoCoursesDay, "day_schedule.png")
}

func (b *Bot) handleWeek(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	username, ok := b.resolveUsername(rsp, interactionUser(i).ID, opts)
	if !ok {
		return
	}

	date := time.Now()
	if raw := optString(opts, "date"); raw != "" {
		d, err := ParseUserDate(raw, time.Local)
		if err != nil {
			rsp.text(msgBadDate)
			return
		}
		date = d
	}

	courses, err := b.client.FetchWeek(context.Background(), username, date)
	if err != nil {
		slog.Error("fetch week schedule", "user", username, "error", err)
		rsp.text(msgFetchError)
		return
	}
	b.respondSchedule(rsp, courses, opts, true, true, msgNoCoursesWeek, "week_schedule.png")
}

func (b *Bot) handleEdt(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	username, ok := b.resolveUsername(rsp, interactionUser(i).ID, opts)
	if !ok {
		return
	}

	begin := optString(opts, "start_time")
	end := optString(opts, "end_time")
	for _, raw := range []string{begin, end} {
		if raw == "" {
			continue
		}
		if _, err := ParseUserDate(raw, time.Local); err != nil {
			rsp.text(msgBadDate)
			return
		}
	}

	courses, err := b.client.FetchRange(context.Background(), username, begin, end)
	if err != nil {
		slog.Error("fetch schedule", "user", username, "error", err)
		rsp.text(msgFetchError)
		return
	}
	b.respondSchedule(rsp, courses, opts, true, false, msgNoCoursesPeriod, "schedule.png")
}

// respondSchedule finishes a schedule command: empty check, then image
// or embed depending on the option. week selects the multi-column
// renderer.
func (b *Bot) respondSchedule(rsp responder, courses []model.Course, opts optMap, week, imageDefault bool, emptyMsg, filename string) {
	if countNamed(courses) == 0 {
		rsp.text(emptyMsg)
		return
	}

	if !optBool(opts, "image", imageDefault) {
		rsp.embed(BuildScheduleEmbed(courses))
		return
	}

	var img []byte
	var err error
	if week {
		img, err = b.renderer.RenderWeek(courses)
	} else {
		img, err = b.renderer.RenderDay(courses)
	}
	if errors.Is(err, render.ErrNoData) {
		rsp.text(emptyMsg)
		return
	}
	if err != nil {
		slog.Error("render schedule image", "error", err)
		rsp.text(msgRenderError)
		return
	}
	rsp.file(filename, img)
}

func (b *Bot) handleRegister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	userID := interactionUser(i).ID
	if _, err := b.users.Get(userID); err == nil {
		rsp.text(msgAlreadyRegistered)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		slog.Error("check registration", "user", userID, "error", err)
		rsp.text(msgStoreError)
		return
	}

	username := optString(opts, "username")
	if err := b.users.Upsert(userID, username); err != nil {
		slog.Error("register user", "user", userID, "error", err)
		rsp.text(msgStoreError)
		return
	}
	rsp.text("Votre nom d'utilisateur a été enregistré avec succès : " + username)
}

func (b *Bot) handleUnregister(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	userID := interactionUser(i).ID
	err := b.users.Delete(userID)
	if errors.Is(err, store.ErrNotFound) {
		rsp.text(msgNotRegistered)
		return
	}
	if err != nil {
		slog.Error("unregister user", "user", userID, "error", err)
		rsp.text(msgStoreError)
		return
	}
	rsp.text(msgUnregistered)
}

func (b *Bot) handleSettings(s *discordgo.Session, i *discordgo.InteractionCreate) {
	opts := optionMap(i)
	if !deferReply(s, i) {
		return
	}
	rsp := &interactionResponder{s: s, i: i}

	userID := interactionUser(i).ID

	if optString(opts, "unregister") != "" {
		err := b.users.Delete(userID)
		if errors.Is(err, store.ErrNotFound) {
			rsp.text(msgNotRegistered)
			return
		}
		if err != nil {
			slog.Error("settings unregister", "user", userID, "error", err)
			rsp.text(msgStoreError)
			return
		}
		rsp.text(msgUnregistered)
		return
	}

	var responses []string

	if reg := optString(opts, "register"); reg != "" {
		if err := b.users.Upsert(userID, reg); err != nil {
			slog.Error("settings register", "user", userID, "error", err)
			rsp.text(msgStoreError)
			return
		}
		responses = append(responses, "Votre nom d'utilisateur a été enregistré avec succès : "+reg)
	}

	if _, err := b.users.Get(userID); errors.Is(err, store.ErrNotFound) {
		rsp.text(msgRegisterRequired)
		return
	} else if err != nil {
		slog.Error("settings lookup", "user", userID, "error", err)
		rsp.text(msgStoreError)
		return
	}

	for _, pref := range []struct{ opt, col, label string }{
		{"daily", model.PrefDaily, "quotidiennes"},
		{"weekly", model.PrefWeekly, "hebdomadaires"},
	} {
		raw := optString(opts, pref.opt)
		if raw == "" {
			continue
		}
		enabled := raw == "Activer"
		if err := b.users.SetPreference(userID, pref.col, enabled); err != nil {
			slog.Error("settings preference", "user", userID, "pref", pref.col, "error", err)
			responses = append(responses, fmt.Sprintf("Erreur lors de la mise à jour des notifications %s.", pref.label))
			continue
		}
		status := "désactivées"
		if enabled {
			status = "activées"
		}
		responses = append(responses, fmt.Sprintf("Notifications %s %s.", pref.label, status))
	}

	if len(responses) == 0 {
		daily, _ := b.users.GetPreference(userID, model.PrefDaily)
		weekly, _ := b.users.GetPreference(userID, model.PrefWeekly)
		responses = append(responses,
			"**Paramètres actuels :**",
			"• Notifications quotidiennes : "+statusWord(daily),
			"• Notifications hebdomadaires : "+statusWord(weekly),
		)
	}

	rsp.text(strings.Join(responses, "\n"))
}

func statusWord(enabled bool) string {
	if enabled {
		return "activées"
	}
	return "désactivées"
}

// resolveUsername returns the schedule username from the option or
// the registration, prompting the user to register when neither is
// available.
func (b *Bot) resolveUsername(rsp responder, userID string, opts optMap) (string, bool) {
	if username := optString(opts, "username"); username != "" {
		return username, true
	}

	u, err := b.users.Get(userID)
	if errors.Is(err, store.ErrNotFound) {
		rsp.text(msgRegisterFirst)
		return "", false
	}
	if err != nil {
		slog.Error("resolve username", "user", userID, "error", err)
		rsp.text(msgStoreError)
		return "", false
	}
	return u.Username, true
}

func countNamed(courses []model.Course) int {
	n := 0
	for _, c := range courses {
		if c.Named() {
			n++
		}
	}
	return n
}

type optMap map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(i *discordgo.InteractionCreate) optMap {
	m := make(optMap)
	for _, opt := range i.ApplicationCommandData().Options {
		m[opt.Name] = opt
	}
	return m
}

func optString(opts optMap, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

func optBool(opts optMap, name string, def bool) bool {
	if opt, ok := opts[name]; ok {
		return opt.BoolValue()
	}
	return def
}

// deferReply acknowledges the interaction so slow fetches and renders
// do not hit the three-second response deadline.
func deferReply(s *discordgo.Session, i *discordgo.InteractionCreate) bool {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		slog.Error("defer interaction", "error", err)
		return false
	}
	return true
}

// responder is the reply surface of one interaction. Handlers speak to
// it instead of the session directly, the same split Sender gives the
// notifier.
type responder interface {
	text(content string)
	embed(e *discordgo.MessageEmbed)
	file(name string, data []byte)
}

// interactionResponder sends ephemeral followups on a deferred
// interaction.
type interactionResponder struct {
	s *discordgo.Session
	i *discordgo.InteractionCreate
}

func (r *interactionResponder) text(content string) {
	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Error("send followup", "error", err)
	}
}

func (r *interactionResponder) embed(e *discordgo.MessageEmbed) {
	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{e},
		Flags:  discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Error("send followup embed", "error", err)
	}
}

func (r *interactionResponder) file(name string, data []byte) {
	_, err := r.s.FollowupMessageCreate(r.i.Interaction, true, &discordgo.WebhookParams{
		Files: []*discordgo.File{{Name: name, ContentType: "image/png", Reader: bytes.NewReader(data)}},
		Flags: discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		slog.Error("send followup file", "error", err)
	}
}
