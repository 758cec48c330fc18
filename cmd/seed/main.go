package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"postboard/dashboard"

	"github.com/brianvoe/gofakeit/v6"
)

// Seeds the API with fake users, posts and votes through the public HTTP
// surface, the same way the dashboard talks to it.
func main() {
	apiURL := flag.String("api", "http://localhost:8000", "base URL of the API")
	userCount := flag.Int("users", 5, "number of users to create")
	postsPerUser := flag.Int("posts", 4, "number of posts per user")
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	api := dashboard.NewClient(*apiURL)
	ctx := context.Background()

	// Every seeded account shares one password that satisfies the policy.
	const password = "Seed-pass1!"

	type account struct {
		email string
		token string
	}
	var accounts []account

	for i := 0; i < *userCount; i++ {
		email := gofakeit.Email()
		first := gofakeit.FirstName()
		last := gofakeit.LastName()

		if err := api.Register(ctx, first, last, email, password); err != nil {
			log.Println("Error registering user:", err)
			continue
		}
		token, err := api.Login(ctx, email, password)
		if err != nil {
			log.Println("Error logging in:", err)
			continue
		}
		accounts = append(accounts, account{email: email, token: token})
		log.Printf("Created user %s %s <%s>", first, last, email)
	}
	if len(accounts) == 0 {
		log.Fatal("No users created, aborting")
	}

	for _, acct := range accounts {
		for i := 0; i < *postsPerUser; i++ {
			title := gofakeit.Sentence(gofakeit.Number(3, 7))
			content := fmt.Sprintf("%s\n\n%s", gofakeit.Paragraph(2, 4, 12, "\n\n"), gofakeit.Quote())
			published := gofakeit.Number(1, 10) > 2 // mostly published

			if err := api.CreatePost(ctx, acct.token, title, content, published); err != nil {
				log.Println("Error creating post:", err)
				continue
			}
		}
		log.Printf("Created %d posts for %s", *postsPerUser, acct.email)
	}

	// Each account votes on a random slice of the feed. Duplicate votes can
	// happen when the random picks collide; the API rejects those with a
	// conflict, which is fine for seeding.
	for _, acct := range accounts {
		posts, err := api.ListPosts(ctx, acct.token, 50, 0, "")
		if err != nil {
			log.Println("Error listing posts:", err)
			continue
		}
		voted := 0
		for _, p := range posts {
			if gofakeit.Bool() {
				continue
			}
			if err := api.Vote(ctx, acct.token, p.Post.ID, true); err != nil {
				log.Println("Error voting:", err)
				continue
			}
			voted++
		}
		log.Printf("%s voted on %d posts", acct.email, voted)
	}

	log.Println("Seeding complete")
}
