package banner

import "fmt"

const Version = "1.0.0"

func Print() {
	banner := `
    ________          __  ___
   / ____/ /__  _  __/  |/  /___  ____
  / /_  / / _ \| |/_/ /|_/ / __ \/ __ \
 / __/ / /  __/>  </ /  / / /_/ / / / /
/_/   /_/\___/_/|_/_/  /_/\____/_/ /_/
       v%s - Alert Rule Engine
    `
	fmt.Printf(banner, Version)
	fmt.Println("\n------------------------------------------------")
}
