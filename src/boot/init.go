package boot

import (
	"context"
	"log"
	"time"

	"gatekeepr/src/models"
	"gatekeepr/src/otp"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

func InitDb(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Organizer{},
		&models.Event{},
		&models.Ticket{},
	)
	if err != nil {
		log.Printf("error migration: %s\n", err.Error())
		return err
	}
	return nil
}

// InitScheduler starts the periodic sweep that garbage-collects expired
// pending verifications. Abandoned sign-ups otherwise linger until the
// store's retention window closes.
func InitScheduler(store *otp.RedisStore) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	j, err := sched.NewJob(
		gocron.DurationJob(10*time.Minute),
		gocron.NewTask(func() {
			store.Sweep(context.Background())
		}),
	)
	if err != nil {
		log.Printf("Error scheduling sweep job: %s\n", err.Error())
		return nil, err
	}
	log.Printf("Scheduled verification sweep: %s\n", j.ID().String())
	sched.Start()
	return sched, nil
}

func StopScheduler(sched gocron.Scheduler) {
	if sched == nil {
		return
	}
	if err := sched.Shutdown(); err != nil {
		log.Println("An error has occurred while stopping Scheduler. Check logs for info")
	}
}
