package generator

import (
	"fmt"

	"github.com/wechange-eg/cloudctl/internal/config"
	"github.com/wechange-eg/cloudctl/internal/constants"
)

// ServiceInfo describes one stack service used in compose generation.
type ServiceInfo struct {
	Image string
	Role  string
	Build func(cfg *config.ProjectConfig) ComposeService
}

var serviceRegistry = map[string]ServiceInfo{
	constants.ServiceDB: {
		Image: MariaDBImage,
		Role:  "MariaDB database",
		Build: buildDBService,
	},
	constants.ServiceApp: {
		Image: NextcloudImage,
		Role:  "Nextcloud application (PHP-FPM)",
		Build: buildAppService,
	},
	constants.ServiceWeb: {
		Image: NginxImage,
		Role:  "nginx front for the application",
		Build: buildWebService,
	},
	constants.ServiceOffice: {
		Image: OnlyOfficeImage,
		Role:  "ONLYOFFICE document server",
		Build: buildOfficeService,
	},
	constants.ServiceProxy: {
		Image: NginxImage,
		Role:  "TLS reverse proxy (host entrypoint)",
		Build: buildProxyService,
	},
}

// GetServiceInfo returns the service info for the given service name.
func GetServiceInfo(name string) (ServiceInfo, error) {
	info, ok := serviceRegistry[name]
	if !ok {
		return ServiceInfo{}, fmt.Errorf("unknown service: %q", name)
	}
	return info, nil
}

// serviceLabels returns the labels every stack container carries.
func serviceLabels(cfg *config.ProjectConfig, service string) map[string]string {
	return map[string]string{
		constants.ServiceLabel: service,
		constants.SiteLabel:    cfg.Name,
	}
}

func buildDBService(cfg *config.ProjectConfig) ComposeService {
	return ComposeService{
		Image:   MariaDBImage,
		Restart: "unless-stopped",
		Command: "--transaction-isolation=READ-COMMITTED --binlog-format=ROW",
		Environment: map[string]string{
			"MARIADB_DATABASE":      DBName,
			"MARIADB_USER":          DBUser,
			"MARIADB_PASSWORD":      "${" + EnvKeyDBPassword + "}",
			"MARIADB_ROOT_PASSWORD": "${" + EnvKeyDBRootPassword + "}",
		},
		Volumes: []string{"db-data:/var/lib/mysql"},
		Healthcheck: &Healthcheck{
			Test:        []string{"CMD", "healthcheck.sh", "--connect", "--innodb_initialized"},
			Interval:    "10s",
			Timeout:     "5s",
			Retries:     5,
			StartPeriod: "30s",
		},
		Labels:   serviceLabels(cfg, constants.ServiceDB),
		Networks: []string{constants.NetworkName},
	}
}

func buildAppService(cfg *config.ProjectConfig) ComposeService {
	return ComposeService{
		Image:   NextcloudImage,
		Restart: "unless-stopped",
		Environment: map[string]string{
			"MYSQL_HOST":                "db",
			"MYSQL_DATABASE":            DBName,
			"MYSQL_USER":                DBUser,
			"MYSQL_PASSWORD":            "${" + EnvKeyDBPassword + "}",
			"NEXTCLOUD_TRUSTED_DOMAINS": cfg.Deploy.Domain,
			"OVERWRITEHOST":             cfg.Deploy.Domain,
			"OVERWRITEPROTOCOL":         "https",
		},
		Volumes: []string{"app-data:/var/www/html"},
		DependsOn: map[string]DependsOn{
			constants.ServiceDB: {Condition: "service_healthy"},
		},
		Labels:   serviceLabels(cfg, constants.ServiceApp),
		Networks: []string{constants.NetworkName},
	}
}

func buildWebService(cfg *config.ProjectConfig) ComposeService {
	return ComposeService{
		Image:   NginxImage,
		Restart: "unless-stopped",
		Volumes: []string{
			"app-data:/var/www/html:ro",
			"./" + constants.WebConfFile + ":/etc/nginx/nginx.conf:ro",
		},
		DependsOn: map[string]DependsOn{
			constants.ServiceApp: {Condition: "service_started"},
		},
		Labels:   serviceLabels(cfg, constants.ServiceWeb),
		Networks: []string{constants.NetworkName},
	}
}

func buildOfficeService(cfg *config.ProjectConfig) ComposeService {
	return ComposeService{
		Image:   OnlyOfficeImage,
		Restart: "unless-stopped",
		Environment: map[string]string{
			"JWT_ENABLED": "true",
			"JWT_SECRET":  "${" + EnvKeyOfficeJWT + "}",
			"JWT_HEADER":  "AuthorizationJwt",
		},
		Labels:   serviceLabels(cfg, constants.ServiceOffice),
		Networks: []string{constants.NetworkName},
	}
}

func buildProxyService(cfg *config.ProjectConfig) ComposeService {
	return ComposeService{
		Image:   NginxImage,
		Restart: "unless-stopped",
		Ports: []string{
			fmt.Sprintf("%d:80", cfg.Deploy.HTTPPort),
			fmt.Sprintf("%d:443", cfg.Deploy.HTTPSPort),
		},
		Volumes: []string{
			"proxy-certs:" + CertsPath + ":ro",
			"./" + constants.ProxyConfFile + ":/etc/nginx/nginx.conf:ro",
		},
		DependsOn: map[string]DependsOn{
			constants.ServiceWeb:    {Condition: "service_started"},
			constants.ServiceOffice: {Condition: "service_started"},
		},
		Labels:   serviceLabels(cfg, constants.ServiceProxy),
		Networks: []string{constants.NetworkName},
	}
}
