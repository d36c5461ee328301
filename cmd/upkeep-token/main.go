// upkeep-token is a small operator tool that mints JWT actor tokens
// for the upkeep API, simulating the external authentication service.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/mzeldin/upkeep/internal/maintenance/auth"
	"github.com/mzeldin/upkeep/internal/maintenance/models"
	"github.com/google/uuid"
)

const defaultSecret = "jwt_secret"

func main() {
	userID := flag.String("user", "", "user id (uuid)")
	companyID := flag.String("company", "", "company id (uuid)")
	role := flag.String("role", string(models.RoleTechnician), "actor role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = defaultSecret
	}

	uid, err := uuid.Parse(*userID)
	if err != nil {
		log.Fatalf("invalid -user: %v", err)
	}
	cid, err := uuid.Parse(*companyID)
	if err != nil {
		log.Fatalf("invalid -company: %v", err)
	}
	r := models.Role(*role)
	if !r.Valid() {
		log.Fatalf("invalid -role %q", *role)
	}

	token, err := auth.GenerateToken(auth.Actor{UserID: uid, CompanyID: cid, Role: r}, secret, *ttl)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}

	out, _ := json.Marshal(map[string]string{"token": token})
	fmt.Println(string(out))
}
