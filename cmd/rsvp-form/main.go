package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/dispatcher"
	"wedding-rsvp/internal/form"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/notifier"
)

func main() {
	fmt.Println("💌 Wedding RSVP")
	fmt.Println("===============")

	cfg := config.LoadConfig()
	log := zerolog.New(os.Stderr).Level(zerolog.WarnLevel).With().Timestamp().Str("component", "Form").Logger()

	d := dispatcher.New(dispatcher.Config{
		EndpointURL: cfg.EndpointURL,
		Timeout:     cfg.DispatchTimeout,
		Policy:      cfg.Ambiguity,
	}, newNotifier(cfg, log), log)
	defer d.Wait()

	rsvpForm := form.New(d, cfg.Events, log)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Println("\nCommands:")
		fmt.Println("  1. Fill in RSVP")
		fmt.Println("  2. Check RSVP service")
		fmt.Println("  3. Exit")
		fmt.Print("\nEnter command (1-3): ")

		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			fillAndSubmit(scanner, rsvpForm, cfg.Events)
		case "2":
			checkStatus(cfg)
		case "3":
			fmt.Println("Exiting...")
			return
		default:
			fmt.Println("Invalid command. Please try again.")
		}
	}
}

func newNotifier(cfg *config.Config, log zerolog.Logger) notifier.Notifier {
	if cfg.EmailJS.Enabled() {
		n, err := notifier.NewEmailJS(cfg.EmailJS, "")
		if err == nil {
			return n
		}
		log.Warn().Err(err).Msg("EmailJS not usable")
	}
	if cfg.SMTP.Enabled() {
		n, err := notifier.NewSMTP(cfg.SMTP, notifier.Wedding{
			BrideName: cfg.BrideName,
			GroomName: cfg.GroomName,
			Date:      cfg.WeddingDate,
			Location:  cfg.WeddingLocation,
		})
		if err == nil {
			return n
		}
		log.Warn().Err(err).Msg("SMTP not usable")
	}
	return notifier.Skip{Log: log}
}

func fillAndSubmit(scanner *bufio.Scanner, f *form.Form, events []string) {
	if !prompt(f, scanner, events) {
		return
	}

	for {
		fmt.Println("\nSending your RSVP...")
		outcome, err := f.Submit(context.Background())
		if err != nil {
			if errors.Is(err, form.ErrSubmissionInProgress) {
				fmt.Println("⏳ Your previous RSVP is still being sent.")
				return
			}
			fmt.Printf("❌ %v\n", err)
			if !ask(scanner, "Edit your answers? (y/n): ") || !prompt(f, scanner, events) {
				return
			}
			continue
		}

		if outcome.Succeeded() {
			fmt.Println("✅ Thank you! Your RSVP has been received.")
			return
		}

		fmt.Println("❌ Sorry, something went wrong sending your RSVP. Your answers are kept.")
		if !ask(scanner, "Try again? (y/n): ") {
			return
		}
	}
}

// prompt asks for every field. It returns false when input ends.
func prompt(f *form.Form, scanner *bufio.Scanner, events []string) bool {
	name, ok := read(scanner, "Full name: ")
	if !ok {
		return false
	}
	attendance, ok := read(scanner, "Will you attend? (Yes/No): ")
	if !ok {
		return false
	}
	f.SetAttendance(normalizeAnswer(attendance))

	var count, arrival string
	var picked []string
	if f.Sections().NumberAttending {
		if count, ok = read(scanner, "Number of people attending: "); !ok {
			return false
		}
		if arrival, ok = read(scanner, "Arrival date (YYYY-MM-DD): "); !ok {
			return false
		}
		fmt.Println("Events:")
		for i, e := range events {
			fmt.Printf("  %d. %s\n", i+1, e)
		}
		choice, ok := read(scanner, "Events you will attend (numbers, comma separated): ")
		if !ok {
			return false
		}
		picked = pickEvents(choice, events)
	}

	email, ok := read(scanner, "Email: ")
	if !ok {
		return false
	}
	message, ok := read(scanner, "Message for the couple (optional): ")
	if !ok {
		return false
	}

	attending := f.Sections().NumberAttending
	f.Update(func(fields *form.Fields) {
		fields.FullName = name
		fields.Email = email
		fields.Message = message
		if attending {
			fields.NumberAttending = count
			fields.ArrivalDate = arrival
			fields.Events = picked
		}
	})
	return true
}

func normalizeAnswer(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return string(models.AttendanceYes)
	case "n", "no":
		return string(models.AttendanceNo)
	}
	return strings.TrimSpace(s)
}

// pickEvents accepts list numbers or names
func pickEvents(choice string, events []string) []string {
	var picked []string
	for _, part := range models.SplitEvents(choice) {
		if n, err := strconv.Atoi(part); err == nil && n >= 1 && n <= len(events) {
			picked = append(picked, events[n-1])
			continue
		}
		picked = append(picked, part)
	}
	return picked
}

func read(scanner *bufio.Scanner, label string) (string, bool) {
	fmt.Print(label)
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func ask(scanner *bufio.Scanner, label string) bool {
	answer, ok := read(scanner, label)
	return ok && normalizeAnswer(answer) == string(models.AttendanceYes)
}

func checkStatus(cfg *config.Config) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DispatchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.EndpointURL, nil)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("❌ RSVP service unreachable: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var status struct {
		Message   string `json:"message"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Printf("⚠️  RSVP service answered with status %d but no status payload\n", resp.StatusCode)
		return
	}
	fmt.Printf("✅ %s (%s, checked %s)\n", status.Message, status.Timestamp, time.Now().Format("15:04:05"))
}
