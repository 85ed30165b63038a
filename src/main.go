package main

import (
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"time"

	"gatekeepr/src/boot"
	"gatekeepr/src/config"
	"gatekeepr/src/controllers"
	"gatekeepr/src/db"
	"gatekeepr/src/lib"
	"gatekeepr/src/lib/mailer"
	"gatekeepr/src/middlewares"
	"gatekeepr/src/otp"

	"github.com/covalenthq/lumberjack"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/gorm"
)

const (
	apiPrefix string = "/api/v1"
)

// gtdate validates that a date field is not before the field it is compared
// against, both in the API date layout.
var gtdate validator.Func = func(fl validator.FieldLevel) bool {
	date, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	datetime, err := time.Parse(config.TIME_PARSE_FORMAT, date)
	if err != nil {
		return false
	}
	field := fl.Parent().FieldByName(fl.Param())
	fieldValue, ok := field.Interface().(string)
	if !ok {
		return false
	}
	fielddatetime, err := time.Parse(config.TIME_PARSE_FORMAT, fieldValue)
	if err != nil {
		return false
	}
	return !fielddatetime.After(datetime)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("gtdate", gtdate)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func apiv1Group(g *gin.Engine) *gin.RouterGroup {
	return g.Group(apiPrefix)
}

// publicRoutes carries everything a registrant reaches without a session:
// the submission pipeline, sign-up verification, and the read side of
// events and organizers.
func publicRoutes(g *gin.Engine, d *gorm.DB, dispatcher *mailer.Dispatcher, auth *controllers.Auth) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	registrationHandlers(apiv1, d, dispatcher)
	authHandlers(apiv1, auth)
	notifyHandlers(apiv1, d, dispatcher)
	publicEventHandlers(apiv1, d)
	publicOrganizerHandlers(apiv1, d)
	return apiv1
}

func organizerRoutes(g *gin.Engine, d *gorm.DB) *gin.RouterGroup {
	authorized := apiv1Group(g)
	authorized.Use(middlewares.AuthMiddleware(d))
	ticketHandlers(authorized, d)
	eventHandlers(authorized, d)
	organizerHandlers(authorized, d)
	return authorized
}

func initLogger() {
	cwd, _ := os.Getwd()
	serverLogs := path.Join(cwd, "logs", "server.log")
	apiLogs := path.Join(cwd, "logs", "api.log")
	gin.ForceConsoleColor()

	f, _ := os.Create(apiLogs)
	gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			panic(err)
		}
	}
	initLogger()
	registerValidators()

	d, err := db.Connect()
	if err != nil {
		log.Fatalf("Error establishing connection to database: %s\n", err.Error())
	}
	if err := boot.InitDb(d); err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	rd, err := lib.NewRedisClient()
	if err != nil {
		log.Fatalf("Error connecting to verification store: %s\n", err.Error())
	}
	store := otp.NewRedisStore(rd)

	smtpClient, err := lib.NewSMTPClient()
	if err != nil {
		log.Fatalf("Error initializing smtp client: %s\n", err.Error())
	}
	fromName, fromAddr := config.MailSender()
	dispatcher := mailer.NewDispatcher(smtpClient, fromName, fromAddr, config.NotifyTimeout())

	otpService := otp.NewService(d, store, dispatcher, config.OTPTTL(), config.OTPMaxAttempts())
	auth := controllers.NewAuth(d, otpService)

	sched, err := boot.InitScheduler(store)
	if err != nil {
		log.Printf("Could not start sweep scheduler: %s\n", err.Error())
	}
	defer boot.StopScheduler(sched)

	router := setupRouter()
	if apiEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
		cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
		cc.AllowOrigins = []string{os.Getenv("APP_HOST")}
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	publicRoutes(router, d, dispatcher, auth)
	organizerRoutes(router, d)

	if err := router.Run(":9090"); err != nil {
		log.Fatalf("Failed to start server: %s", err)
	}
}
