package exclude

// DefaultDomains lists hosts that rarely yield article text: media hosts,
// storefronts, social sites and image boards. Entries without a dot match any
// label of a host, entries with a dot match the host or any subdomain of it.
var DefaultDomains = []string{
	"500px", "aa.com.tr", "abercrombie", "akamaihd", "amazon", "archive.is",
	"archive.li", "artstation", "audio-ice1.ibiblio.org", "awwni", "bandcamp",
	"bandcamp.com", "bellinghamherald.com", "bestbuy.com", "bnd.com",
	"charlotteobserver.com", "costco", "dailymotion", "deviantart", "diffchecker.com",
	"discord", "discordapp", "dropbox", "e621", "eastbay.com", "elnuevoherald.com",
	"erome", "eroshare", "eroshare.com", "fbcdn", "flickr", "flkeysnews.com",
	"footlocker", "fresnobee.com", "furaffinity", "futhead", "gamestop.com",
	"gfycat", "gifsound", "gifsoup", "giphy", "gospelherald.com", "groupon",
	"gunprime.com", "gyazo", "gyazo.com", "herald.com", "heraldonline.com",
	"heraldsun.com", "idahostatesman.com", "imagefap", "imageshack", "imgflip.com",
	"imgur.com", "instagram", "islandpacket.com", "itunes.apple.com", "kansas.com",
	"kansascity.com", "karmadecay", "kentucky.com", "kym-cdn", "ledger-enquirer.com",
	"lethbridgeherald.com", "linksynergy.com", "listen.noagendastream.com", "liveleak",
	"livememe", "lmgtfy", "m.gamestop.com", "macon.com", "magaimg", "magaimg.net",
	"mcclatchydc.com", "mega.nz", "memegenerator", "miamiherald.com", "minus",
	"modbee.com", "morejpegmyrtlebeachonline.com", "newsobserver.com", "nhk.or.jp",
	"nocookie", "pcpartpicker", "pcrichard.com", "photobucket", "pinimg", "pixiv",
	"pornhub", "prntscr", "puu", "qkme", "quickmeme", "quotev.com", "radd",
	"redd", "reddit", "reddit-stream", "redditlog", "redditmedia", "reddituploads",
	"redtube", "roanoke.com", "sacbee.com", "sanluisobispo.com", "sli.mg",
	"soundcloud.com", "soundgasm", "spankbang", "spotify", "spotify.com",
	"spotrac.com", "star-telegram.com", "staticflickr", "steamcommunity",
	"store.hp.com", "store.playstation.com", "strawpoll", "strawpoll.me",
	"streamable", "streamable.com", "sunherald.com", "taobao.com",
	"themalaymailonline.com", "thenewstribune.com", "theolympian.com", "thestate.com",
	"ticketmaster", "timeanddate.com", "tinypic", "tri-cityherald.com", "tumblr",
	"twimg", "twimg.com", "twitch", "twitch.tv", "twitter", "vimeo", "vimeo.com",
	"vine", "vocaroo", "voyagefusion.com", "walmart.com", "wikimedia", "xhamster",
	"xkcd.com", "xvideos", "yg-life.com", "youtu.be", "youtube", "youtubedoubler.com",
	"ytimg",
}

// DefaultExtensions lists path suffixes of binary or non-prose resources.
var DefaultExtensions = []string{
	"3gp", "apk", "app", "bin", "bz2", "csv", "dat", "doc", "docx", "exe",
	"gif", "gifv", "gz", "iso", "jar", "jpeg", "jpg", "log", "m4v", "mjpg",
	"mov", "mp3", "mp4", "ogv", "pdf", "png", "pps", "ppt", "pptx", "svg",
	"tar", "tgz", "webm", "wma", "wmv", "xml", "xz", "zip",
}
