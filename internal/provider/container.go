package provider

import (
	"time"

	"github.com/checkout-core/internal/authz"
	"github.com/checkout-core/internal/cache"
	"github.com/checkout-core/internal/config"
	"github.com/checkout-core/internal/logger"
	"github.com/checkout-core/internal/models"
	"github.com/checkout-core/internal/queue"
	"github.com/checkout-core/internal/repository"
	"github.com/checkout-core/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo             repository.UserRepository
	ProductRepo          repository.ProductRepository
	CartRepo             repository.CartRepository
	OrderRepo            repository.OrderRepository
	WalletRepo           repository.WalletRepository
	PointsRepo           repository.PointsRepository
	CouponRepo           repository.CouponRepository
	CouponRedemptionRepo repository.CouponRedemptionRepository
	SettingRepo          repository.SettingRepository
	AuditLogRepo         repository.AuditLogRepository

	// Services
	AuthzService       *authz.Service
	SettingService     *service.SettlementSettingService
	MembershipService  *service.MembershipService
	WalletService      *service.WalletService
	CouponService      *service.CouponService
	CouponAdminService *service.CouponAdminService
	LoyaltyService     *service.LoyaltyService
	CartService        *service.CartService
	AuditService       *service.AuditService
	OrderService       *service.OrderService
	ProfileService     *service.ProfileService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := NewContainerWithDB(cfg, models.DB, queueClient)

	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	return c
}

// NewContainerWithDB 基于指定数据库装配仓库与服务（不初始化外部依赖）
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, queueClient *queue.Client) *Container {
	if cfg == nil {
		cfg = &config.Config{}
	}
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.UserRepo = repository.NewUserRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.PointsRepo = repository.NewPointsRepository(db)
	c.CouponRepo = repository.NewCouponRepository(db)
	c.CouponRedemptionRepo = repository.NewCouponRedemptionRepository(db)
	c.SettingRepo = repository.NewSettingRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() {
	settlementCfg := c.Config.Settlement
	cacheTTL := time.Duration(settlementCfg.SettingsCacheTTLSeconds) * time.Second
	defaults := service.SettlementSettingsFromConfig(settlementCfg.DefaultSettings)
	if err := defaults.Validate(); err != nil {
		logger.Warnw("provider_default_settings_invalid", "error", err)
		defaults = service.DefaultSettlementSettings()
	}

	c.SettingService = service.NewSettlementSettingService(c.SettingRepo, defaults, cacheTTL)
	c.MembershipService = service.NewMembershipService(c.UserRepo)
	c.WalletService = service.NewWalletService(c.WalletRepo, c.MembershipService, c.SettingService, settlementCfg.RecentTransactionsLimit)
	c.CouponService = service.NewCouponService(c.CouponRepo, c.CouponRedemptionRepo, c.UserRepo)
	c.CouponAdminService = service.NewCouponAdminService(c.CouponRepo)
	c.LoyaltyService = service.NewLoyaltyService(c.UserRepo, c.PointsRepo, c.SettingService, settlementCfg.RecentTransactionsLimit)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo)
	c.AuditService = service.NewAuditService(c.AuditLogRepo, c.QueueClient)
	c.OrderService = service.NewOrderService(service.OrderServiceOptions{
		OrderRepo:   c.OrderRepo,
		ProductRepo: c.ProductRepo,
		CartRepo:    c.CartRepo,
		UserRepo:    c.UserRepo,
		WalletSvc:   c.WalletService,
		CouponSvc:   c.CouponService,
		LoyaltySvc:  c.LoyaltyService,
		SettingSvc:  c.SettingService,
		AuditSvc:    c.AuditService,
	})
	c.ProfileService = service.NewProfileService(c.UserRepo, c.WalletRepo, c.PointsRepo, c.MembershipService, c.SettingService)
}
