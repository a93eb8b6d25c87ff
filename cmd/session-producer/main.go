package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/arcade-profiles/internal/domain"
)

var playerPrefixes = []string{
	"Phoenix", "Shadow", "Thunder", "Storm", "Blaze", "Ninja", "Dragon", "Wolf", "Hawk", "Viper",
	"Ghost", "Titan", "Frost", "Cyber", "Nova", "Raven", "Omega", "Alpha", "Delta", "Sigma",
}

var ships = []string{"scout", "falcon", "interceptor", "juggernaut"}

func badgeID(idx int) string {
	return fmt.Sprintf("BADGE-%05d", idx)
}

func playerName(idx int) string {
	prefixIdx := idx % len(playerPrefixes)
	suffix := idx/len(playerPrefixes) + 1
	return fmt.Sprintf("%s%d", playerPrefixes[prefixIdx], suffix)
}

// randomSession builds a plausible session outcome for one of the cabinet games
func randomSession(badge, game string) domain.SessionOutcome {
	outcome := domain.SessionOutcome{
		PlayerID: badge,
		GameName: game,
		Duration: rand.Intn(300) + 30,
	}

	switch game {
	case domain.GamePlatform:
		outcome.Level = rand.Intn(10) + 1
		outcome.Score = rand.Intn(2000) + 100
		outcome.CoinsEarned = rand.Intn(50)
	case domain.GameShooter:
		outcome.Score = rand.Intn(5000) + 200
		outcome.AsteroidsDestroyed = rand.Intn(120)
		outcome.PowerUpsCollected = rand.Intn(8)
		outcome.Accuracy = float64(rand.Intn(1000)) / 10
		outcome.SurvivalTime = rand.Intn(600) + 20
		outcome.ShipUsed = ships[rand.Intn(len(ships))]
	case "tetris":
		outcome.Score = rand.Intn(20000)
		outcome.Level = rand.Intn(15) + 1
		outcome.Lines = rand.Intn(150)
	default:
		// Some cabinets still report scores as strings
		outcome.Score = fmt.Sprintf("%d", rand.Intn(900)+10)
	}
	return outcome
}

// registerPlayers creates the generated badges through the HTTP API; existing badges are ignored
func registerPlayers(apiURL string, total int) (created int, err error) {
	client := &http.Client{Timeout: 5 * time.Second}
	for i := 0; i < total; i++ {
		body, _ := json.Marshal(domain.RegisterRequest{BadgeID: badgeID(i), Name: playerName(i)})
		resp, err := client.Post(strings.TrimRight(apiURL, "/")+"/api/v1/players", "application/json", bytes.NewReader(body))
		if err != nil {
			return created, fmt.Errorf("registering %s: %w", badgeID(i), err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusCreated {
			created++
		}
	}
	return created, nil
}

func main() {
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "arcade-sessions", "Kafka topic")
	games := flag.String("games", "tilliman,spaceships,snake,tetris", "Games to report sessions for (comma-separated)")
	totalPlayers := flag.Int("players", 200, "Number of badges to play with")
	sessionsPerSecond := flag.Int("rate", 50, "Sessions per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	apiURL := flag.String("register", "", "Register the badges through this API base URL before producing")
	flag.Parse()

	if *totalPlayers <= 0 || *sessionsPerSecond <= 0 {
		log.Fatal("players and rate must be positive")
	}
	brokerList := strings.Split(*brokers, ",")
	gameList := strings.Split(*games, ",")

	fmt.Println("Arcade session producer")
	fmt.Printf("  Brokers:      %s\n", *brokers)
	fmt.Printf("  Topic:        %s\n", *topic)
	fmt.Printf("  Games:        %s\n", *games)
	fmt.Printf("  Players:      %d\n", *totalPlayers)
	fmt.Printf("  Sessions/sec: %d\n", *sessionsPerSecond)
	fmt.Println()

	if *apiURL != "" {
		created, err := registerPlayers(*apiURL, *totalPlayers)
		if err != nil {
			log.Fatalf("Failed to register players: %v", err)
		}
		fmt.Printf("Registered %d new badges\n\n", created)
	}

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Flush.Messages = 100
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var successCount, errorCount int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			atomic.AddInt64(&successCount, 1)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			atomic.AddInt64(&errorCount, 1)
			log.Printf("Producer error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutdown := func(reason string) {
		fmt.Printf("\n%s, shutting down...\n", reason)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("Completed. Sent: %d, Errors: %d\n", atomic.LoadInt64(&successCount), atomic.LoadInt64(&errorCount))
	}

	ticker := time.NewTicker(time.Second / time.Duration(*sessionsPerSecond))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	var sessionCount int64

	for {
		select {
		case <-sigChan:
			shutdown("Interrupted")
			return

		case <-ticker.C:
			if *duration > 0 && time.Now().After(endTime) {
				shutdown("Duration reached")
				return
			}

			// A fifth of the badges play most of the sessions
			idx := rand.Intn(*totalPlayers)
			if rand.Intn(100) < 70 {
				idx = rand.Intn(max(*totalPlayers/5, 1))
			}
			game := strings.TrimSpace(gameList[rand.Intn(len(gameList))])

			outcome := randomSession(badgeID(idx), game)
			data, err := json.Marshal(outcome)
			if err != nil {
				log.Printf("Failed to marshal session: %v", err)
				continue
			}

			producer.Input() <- &sarama.ProducerMessage{
				Topic: *topic,
				Key:   sarama.StringEncoder(outcome.PlayerID),
				Value: sarama.ByteEncoder(data),
			}
			atomic.AddInt64(&sessionCount, 1)

		case <-statsTicker.C:
			fmt.Printf("[%s] Sessions: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				atomic.LoadInt64(&sessionCount),
				atomic.LoadInt64(&successCount),
				atomic.LoadInt64(&errorCount),
			)
		}
	}
}
