package webui

const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Stickies Placeholder</title>
<style>
body { font-family: Geneva, Helvetica, sans-serif; margin: 2em; }
li { margin: 0.2em 0; }
</style>
</head>
<body>
<h1>Stickies Placeholder</h1>
<p><a href="/api/placeholder.dsk" download="{{.ImageName}}">Download {{.ImageName}}</a></p>
<h2>Companion disks</h2>
<ul>
{{range .Disks}}<li>{{.Name}} <code>{{.File}}</code></li>
{{else}}<li>No companion disks configured.</li>
{{end}}</ul>
</body>
</html>
`
