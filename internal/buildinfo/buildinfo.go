package buildinfo

const Graffiti = " ____  _____ ____ ___ __  __ _____ \n|  _ \\| ____/ ___|_ _|  \\/  | ____|\n| |_) |  _|| |  _ | || |\\/| |  _|  \n|  _ <| |__| |_| || || |  | | |___ \n|_| \\_\\_____\\____|___|_|  |_|_____|\n\n"

// Set with -ldflags "-X github.com/go-sod/regime/internal/buildinfo.BuildTag=...".
var (
	BuildTag string = "v0.0.0"
	Name     string = "regime"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
